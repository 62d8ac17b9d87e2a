// Package notify delivers run reports to the operator.
//
// MailNotifier sends the report over SMTP. Well-known providers can be named
// by service instead of spelling out host and port. LogNotifier writes the
// report to the logger and is used when no mail account is configured.
//
// Delivery is best effort: callers log a failed Send and carry on.
package notify
