// Package extract locates known substructures inside portal responses.
//
// The portal's markup is not well-formed enough for a strict parser, and only
// a handful of fixed shapes are ever needed, so extraction is done with
// targeted patterns over the raw response text:
//   - TableRows: cells of every <tr> row in a table
//   - ListItems: date and title of every <li> in the news list
//   - AnchorTarget: href of the anchor with a given visible label
//   - RecordList: the record array inside a JSONP envelope
//   - Section: the inner markup of the first matching container element
//
// Every function is pure and operates on an already fetched body. A missing
// structure is reported with a sentinel error rather than an empty result,
// so callers can tell "empty" from "not there".
package extract
