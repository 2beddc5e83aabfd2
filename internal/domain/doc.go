// Package domain defines the envelope observations travel in between the
// pipeline stages, and the functions that turn a raw source message into a
// processed observation.
//
// # Data Source
//
// Fetch adapters (METAR scrapers, personal weather station bridges, model
// output readers) run upstream of this service. Each publishes one JSON
// wire record per observation to the Kafka source topic. The wire format is
// owned by [observation.DecodeWire]:
//
//	{
//	  "date_time": "2024-07-04T15:00:00Z",
//	  "station": {"name": "KOKC", "altitude": {"value": 1000, "unit": "ft"},
//	              "coords": {"latitude": 35.39, "longitude": -97.6},
//	              "time_zone": "America/Chicago"},
//	  "layers": {"near_surface": {"layer": "near_surface",
//	                              "temperature": {"value": 81, "unit": "°F"}}},
//	  "wx_codes": ["-TSRA"],
//	  "altimeter": {"value": 29.92, "unit": "inHg"}
//	}
//
// Every quantity carries its own unit symbol, so sources never normalize.
// Unknown fields, unknown unit symbols, malformed layer keys and present
// weather codes with no recognized token reject the whole message.
//
// # Processing
//
// [ProcessRawEvent] decodes the wire record and projects it into the
// configured display units once. The projection carries every derived
// quantity (dewpoint, sea-level pressure, wind chill, heat index, apparent
// temperature, theta-e, present weather, comfort index) so downstream
// consumers need none of the formulas.
//
// # Keys
//
// Sink messages are keyed "station|RFC3339 capture time". Replaying a source
// message produces the same key, so compacted topics and the time-series
// store deduplicate without coordination. See [ProcessedObservation.Key].
package domain
