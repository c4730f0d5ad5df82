package util_test

import (
	"testing"

	"github.com/agubarev/lowcode/pkg/util"
	"github.com/stretchr/testify/assert"
)

func TestNewULID(t *testing.T) {
	a := assert.New(t)

	uid1 := util.NewULID()
	uid2 := util.NewULID()
	uid3 := util.NewULID()

	a.NotEqual(uid1, uid2)
	a.NotEqual(uid2, uid3)
	a.NotEqual(uid3, uid1)

	// monotonic within the same producer
	a.True(uid1.Compare(uid2) < 0)
	a.True(uid2.Compare(uid3) < 0)
}

func TestNewID(t *testing.T) {
	a := assert.New(t)

	id := util.NewID()
	a.Len(id, 26)
	a.Regexp("^[0-9a-z]+$", id)
	a.NotEqual(id, util.NewID())
}
