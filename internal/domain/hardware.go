package domain

// Fingerprint is the 5-field hardware identity reported by the client on
// login. The hash set, unique ID and disk ID are mandatory for any integrity
// decision; the client version and raw MAC list are informational.
type Fingerprint struct {
	ClientVersion string
	RawMACs       string
	MACHashSet    string
	UniqueID      string
	DiskID        string
}

// Complete reports whether all mandatory fields are present.
func (f *Fingerprint) Complete() bool {
	return f.MACHashSet != "" && f.UniqueID != "" && f.DiskID != ""
}

// HardwareMatch is another account whose fingerprint history matched the
// fingerprint currently being checked.
type HardwareMatch struct {
	PlayerID    int64
	Username    string
	Occurrences int64
}
