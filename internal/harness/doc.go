// Package harness runs decoding conformance scenarios.
//
// A scenario names XML documents, the outcome expected of decoding each
// one, and assertions over the decoded values. Observations can be written
// to an in-memory store so that decoded requests are checked against the
// rows they select.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	store: true
//	offering: urn:offering:1
//	documents:
//	  - path: observation.xml
//	    expect: { type: "*om.Observation" }
//	  - xml: <xs:boolean xmlns:xs="http://www.w3.org/2001/XMLSchema">maybe</xs:boolean>
//	    expect: { error: InvalidParameterValue, parameter: boolean }
//	  - path: get_observation.xml
//	    expect: { type: "*sos.GetObservation" }
//	assertions:
//	  - type: field_equals
//	    document: 0
//	    path: procedure
//	    value: urn:procedure:1
//	  - type: decoded_count
//	    count: 2
//	  - type: query_count
//	    document: 2
//	    count: 1
//
// # Assertion Types
//
//   - field_equals: a dotted path into the decoded value's JSON form equals value
//   - decoded_count: exactly count documents decoded without error
//   - query_count: the filter carried by a decoded request selects count stored observations
//
// # Deterministic Testing
//
// Stored observations get ids from testutil.IDGenerator and timestamps
// from testutil.DeterministicClock, and each run uses its own in-memory
// SQLite database, so outcomes are stable for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/get_observation.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
