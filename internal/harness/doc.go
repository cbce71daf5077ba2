// Package harness runs rendering fixtures and compares their text output
// against golden files.
//
// # Fixture Format
//
// Fixtures are YAML files; the result, transcript and error documents are
// embedded as JSON strings:
//
//	name: fixture_name
//	description: "What this fixture shows"
//	session_id: fixed-session
//	area: { name: Computer Science, type: major, catalog_year: 2019, success_rank: 2 }
//	toggles: ["$.items[0]"]
//	transcript: |
//	  [{"clbid": "1", "course": "CSCI 121", "name": "..."}]
//	result: |
//	  {"type": "count", ...}
//	expect:
//	  status: Complete
//	  problems: [UNRESOLVED_CLAIM]
//
// A fixture with neither result nor error renders the not-complete message.
//
// # Deterministic Output
//
// Every fixture renders with a fixed session id and the default printer, so
// the same fixture always produces byte-identical text.
package harness
