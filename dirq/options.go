package dirq

import "time"

// Options configures a queue's filesystem layout and identifier
// generation. The zero value is not ready to use; call
// DefaultOptions and override individual fields, the way the
// teacher's backend Options structs document their defaults in the
// constructor rather than relying on external config files (spec.md
// §6: "Environment: none required").
type Options struct {
	// Umask is applied to every file/directory this queue creates.
	// Defaults to 0022.
	Umask int

	// Granularity is the bucket width in seconds. Defaults to 60.
	Granularity int

	// RndHex is the number of random hex digits appended to element
	// names, honored for byte-for-byte compatibility with sibling
	// implementations. A negative value (the one DefaultOptions sets)
	// means "derive from pid"; zero means no random digits.
	RndHex int

	// MaxRetries bounds the exclusive-create retry loop in Add before
	// it surfaces dirqerrors.ErrNameCollision. Defaults to 10.
	MaxRetries int

	// DirPerm and FilePerm set the mode passed to mkdir/create calls
	// before umask is applied.
	DirPerm  uint32
	FilePerm uint32
}

// DefaultOptions returns the documented defaults (spec.md §4.1, §4.3,
// §9's "Open question" resolutions): 60s granularity, pid-derived
// rndhex, 10 retries, 0022 umask.
func DefaultOptions() Options {
	return Options{
		Umask:       0o022,
		Granularity: 60,
		RndHex:      -1,
		MaxRetries:  10,
		DirPerm:     0o755,
		FilePerm:    0o644,
	}
}

// normalized fills in zero-valued fields with their documented
// defaults and resolves RndHex's "derive from pid" sentinel.
func (o Options) normalized(pid int) Options {
	d := DefaultOptions()
	if o.Granularity <= 0 {
		o.Granularity = d.Granularity
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = d.MaxRetries
	}
	if o.DirPerm == 0 {
		o.DirPerm = d.DirPerm
	}
	if o.FilePerm == 0 {
		o.FilePerm = d.FilePerm
	}
	if o.RndHex < 0 {
		o.RndHex = deriveRndHex(pid)
	}
	return o
}

// maxLockDefault and maxTempDefault are default purge staleness
// windows; they equal the CLI's --maxlock/--maxtemp flag defaults,
// which the CLI declares on its own.
const (
	maxLockDefault = 600 * time.Second
	maxTempDefault = 600 * time.Second
)
