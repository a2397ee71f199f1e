// Package harness runs end-to-end scenarios against the engine.
//
// A scenario starts from a fresh in-memory log, optionally seeded with
// lines, and feeds a flow of bouncer events to a real engine. Every line
// the engine writes back is recorded per step, so scenarios can pin down
// backlog replay, search output and away handling exactly.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	self: me
//	client: { server_time: true }
//	setup:
//	  - { who: bob, where: "#go", message: "hello" }
//	flow:
//	  - event: mod_command
//	    text: "backlog #go 5"
//	    expect:
//	      user:
//	        - "@time=2024-03-01T12:00:00.000Z :bob!znc@znc.in PRIVMSG #go :hello"
//	assertions:
//	  - type: row_count
//	    where: { where: "#go" }
//	    count: 1
//
// Log lines are stamped by a clock starting at DefaultStart that moves one
// Step per line, and all times are rendered in UTC.
//
// # Assertion Types
//
//   - output_contains: a line was written to a channel
//   - output_order: lines were written to a channel in order
//   - output_count: a channel received exactly N lines
//   - final_state: exactly one row of log or settings matches
//   - row_count: log or settings has exactly N matching rows
//
// # Golden Files
//
// RunWithGolden compares the full trace with testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
