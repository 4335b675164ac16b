package dirq

import (
	"crypto/rand"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	bucketWidth  = 8  // hex digits in a bucket name
	elementWidth = 14 // hex digits in an element name: 8 + 2 + 2 + 2
	timeLowWidth = 8
	counterWidth = 2
	pidWidth     = 2
	randWidth    = elementWidth - timeLowWidth - counterWidth - pidWidth // 2
)

// idState produces bucket, element and temporary names for one queue
// handle. The counter is advanced atomically and pid/rndHex are
// read-only after construction, so newElementName may be called from
// several goroutines sharing one handle.
type idState struct {
	counter uint32 // per-process monotonically increasing
	pid     int
	rndHex  int // number of the final randWidth hex digits that are randomized, clamped to [0, randWidth]
}

func newIDState(pid, rndHex int) *idState {
	if rndHex < 0 {
		rndHex = 0
	}
	if rndHex > randWidth {
		rndHex = randWidth
	}
	return &idState{pid: pid, rndHex: rndHex}
}

// deriveRndHex hashes the process identity into [0, randWidth] the way
// spec.md §4.1 asks for when no explicit rndhex is given: "a value is
// chosen once at queue construction time by hashing the process
// identity into that range."
func deriveRndHex(pid int) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "dirq-pid-%d", pid)
	return int(h.Sum32() % uint32(randWidth+1))
}

// newBucketName returns the 8-hex-digit bucket a newly created element
// at time `now` belongs to, given a granularity in seconds.
func newBucketName(now time.Time, granularity int) string {
	if granularity <= 0 {
		granularity = 60
	}
	bucket := uint32(now.Unix()/int64(granularity)) & 0xffffffff
	return fmt.Sprintf("%0*x", bucketWidth, bucket)
}

// newElementName returns a fresh 14-hex-digit element name. The low
// bits of the current time keep entries within a bucket in roughly
// chronological order; the counter guarantees strict ordering for a
// single producer even when several elements share a timestamp; the
// pid and any randomized digits reduce cross-process collisions to
// something O_EXCL/mkdir retry can absorb (see Add's retry loop).
func (s *idState) newElementName(now time.Time) (string, error) {
	timeLow := uint32(now.UnixNano()/1000) & 0xffffffff
	counter := atomic.AddUint32(&s.counter, 1) & 0xff
	pidByte := uint8(s.pid) & 0xff

	randPart, err := randomHexSuffix(s.rndHex, randWidth)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*x%02x%02x%s", timeLowWidth, timeLow, counter, pidByte, randPart), nil
}

// randomHexSuffix returns a string of `width` hex digits, the
// trailing `n` of which are cryptographically random and the leading
// width-n left as zero. n is assumed already clamped to [0, width].
func randomHexSuffix(n, width int) (string, error) {
	zeros := width - n
	if n == 0 {
		return fmt.Sprintf("%0*d", width, 0), nil
	}
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	hexDigits := fmt.Sprintf("%x", buf)[:n]
	return strings.Repeat("0", zeros) + hexDigits, nil
}

// newTemporaryName returns a name for a staging file under
// temporary/, guaranteed distinct from any possible element name: a
// UUID always contains a '-', which never appears in a hex element
// name.
func newTemporaryName() string {
	return uuid.NewString()
}

func currentPID() int {
	return os.Getpid()
}
