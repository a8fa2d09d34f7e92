// internal/service/lists/distributor.go
package lists

import (
	"strings"
	"time"

	"agentlist-service/internal/domain/agent"
	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"

	"github.com/google/uuid"
)

// Distributor assigns rows to agents round-robin in roster order.
type Distributor struct {
	newUploadID func() string
	now         func() time.Time
}

type DistributorOption func(*Distributor)

// WithUploadIDFunc overrides the upload identifier source.
func WithUploadIDFunc(fn func() string) DistributorOption {
	return func(d *Distributor) { d.newUploadID = fn }
}

// WithClock overrides the batch timestamp source.
func WithClock(fn func() time.Time) DistributorOption {
	return func(d *Distributor) { d.now = fn }
}

func NewDistributor(opts ...DistributorOption) *Distributor {
	d := &Distributor{
		newUploadID: uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Distribute gives row i to roster[i % len(roster)]. Every record carries the
// same fresh upload id and the owning agent's id and current name.
func (d *Distributor) Distribute(rows []list.Row, roster []agent.Agent) (*list.Batch, error) {
	if len(roster) == 0 {
		return nil, xerrors.ErrNoEligibleAgents
	}

	uploadID := d.newUploadID()
	createdAt := d.now().UTC()

	records := make([]list.Record, len(rows))
	for i, row := range rows {
		owner := roster[i%len(roster)]
		records[i] = list.Record{
			FirstName: field(row, list.ColumnFirstName),
			Phone:     field(row, list.ColumnPhone),
			Notes:     field(row, list.ColumnNotes),
			AgentID:   owner.ID,
			AgentName: owner.Name,
			UploadID:  uploadID,
			CreatedAt: createdAt,
		}
	}

	return &list.Batch{
		UploadID:     uploadID,
		CreatedAt:    createdAt,
		Records:      records,
		Distribution: Summary(len(rows), roster),
	}, nil
}

// Summary reports how many of n rows each roster position receives: the first
// n%M agents get n/M+1, the rest n/M.
func Summary(n int, roster []agent.Agent) []list.AgentShare {
	m := len(roster)
	if m == 0 {
		return nil
	}

	shares := make([]list.AgentShare, m)
	for i, a := range roster {
		count := n / m
		if i < n%m {
			count++
		}
		shares[i] = list.AgentShare{
			AgentID:      a.ID,
			AgentName:    a.Name,
			RecordsCount: count,
		}
	}
	return shares
}

func field(row list.Row, name string) string {
	return strings.TrimSpace(row[name])
}
