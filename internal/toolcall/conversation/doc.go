// Package conversation defines the provider-neutral conversation model exchanged
// between an agent loop and a tool-calling model adapter.
//
// Ordering of messages is owned by the caller. Adapters only read a history or
// return new messages for the caller to append; they never reorder or retain it.
//
// Metadata that agent loops keep in an open "extra" map is modelled by
// Extra, a record of optional fields. Correlation ids, return codes and exception
// info therefore stay type-checked, while Extra.Metadata holds whatever the
// executor attaches beyond that.
package conversation
