package util

import (
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid"
)

var ulidChannel chan ulid.ULID

// initULIDChannel running a goroutine that pushes ulid.ULIDs into ulidChannel
// NOTE: monotonic entropy source is not safe for concurrent use, thus
// a single producer goroutine owns it for the lifetime of the process
func initULIDChannel() {
	if ulidChannel != nil {
		return
	}

	ulidChannel = make(chan ulid.ULID, 100)
	go func() {
		entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
		for {
			ulidChannel <- ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
		}
	}()
}

// NewULID returns a new ulid.ULID
func NewULID() ulid.ULID {
	return <-ulidChannel
}

// NewID returns a new lowercase ULID string, used as an entity identifier
func NewID() string {
	return strings.ToLower(NewULID().String())
}

func init() {
	initULIDChannel()
}
