package log

// MapPriority exposes the journal priority mapping for tests.
var MapPriority = mapPriority
