// Package analyzer is the header rule-evaluation engine.
//
// Architecture overview:
//
//   - Input carries an already-fetched headers.Set plus the request URL and
//     status code. The engine performs no I/O.
//   - Five rule sets run over the same Set: missing security headers,
//     fingerprinting headers, deprecated/insecure values, empty values and
//     browser compatibility references. Each produces an ordered []Finding.
//   - The insecure rule set is a declarative table (insecureRules) evaluated
//     by a single loop; every rule is independent of every other rule.
//   - Engine.Analyze runs the five sets concurrently into fixed slots, so the
//     resulting Report is identical to a sequential run.
//
// Display text (titles, explanations, references) comes from the knowledge
// base keyed by rule id. In brief mode explanations and references are
// dropped; classification and counts are unaffected.
package analyzer
