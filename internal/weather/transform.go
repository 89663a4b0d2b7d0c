package weather

// Transform is the pipeline's transform stage. It currently returns records
// unchanged; per-country unit conversion belongs here.
func Transform(records []Record) []Record {
	return records
}
