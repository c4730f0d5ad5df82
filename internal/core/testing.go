package core

import (
	"github.com/agubarev/lowcode/pkg/domain"
	"github.com/agubarev/lowcode/pkg/group"
	"github.com/agubarev/lowcode/pkg/workflow"
	"go.uber.org/zap"
)

// NewForTesting returns a fully initialized in-memory core with a silent logger
func NewForTesting() (*Core, error) {
	c, err := New(Stores{
		Domains:   domain.NewMemoryStore(),
		Groups:    group.NewMemoryStore(),
		Workflows: workflow.NewMemoryStore(),
	})
	if err != nil {
		return nil, err
	}

	if err = c.SetLogger(zap.NewNop()); err != nil {
		return nil, err
	}

	return c, nil
}
