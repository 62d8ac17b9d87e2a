// Package portal implements the authenticated navigation of the legacy portal.
//
// A Workflow chains the steps below on a pipeline.Pipeline:
//
//	homepage -> login_form -> credentials [captcha loop] -> redirect
//	  -> landing -> top_frame -> illegal_programs -> announcements
//
// Every request carries the URL of the previous page as Referer, except the
// landing page, which keeps the login submission URL because it is reached
// through the portal's own redirect. Each page must contain a known marker;
// a missing marker aborts the run with a *PageShapeError naming the step.
//
// The literal markers, paths and labels of the portal live in contract.go.
// They are part of an integration the portal controls, so they are not
// configurable.
package portal
