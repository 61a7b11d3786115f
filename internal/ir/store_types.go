package ir

// NOTE: These are store-layer types, not part of the hashed bundle.

// BuildRecord is one recorded build in the ledger.
type BuildRecord struct {
	ID            string  `json:"id"`
	Seq           int64   `json:"seq"` // Logical clock, never wall time
	SoC           string  `json:"soc"`
	Variant       Variant `json:"variant"`
	ConfigHash    string  `json:"config_hash"`
	BundleHash    string  `json:"bundle_hash"`
	EngineVersion string  `json:"engine_version"`
	IRVersion     string  `json:"ir_version"`
}

// NewBuildRecord describes b for the ledger. Seq is assigned on write.
func NewBuildRecord(b *Bundle, configHash string) BuildRecord {
	return BuildRecord{
		ID:            b.ID,
		SoC:           b.SoC,
		Variant:       b.Variant,
		ConfigHash:    configHash,
		BundleHash:    b.Hash,
		EngineVersion: EngineVersion,
		IRVersion:     b.IRVersion,
	}
}
