// internal/service/lists/aggregator.go
package lists

import (
	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"
)

// ByUpload groups records by upload id and then by agent id. Records inside
// an agent group keep their input order. The order of the returned uploads is
// unspecified.
func ByUpload(records []list.StoredRecord) []list.UploadGroup {
	groups := make(map[string]*list.UploadGroup)

	for i := range records {
		r := &records[i]
		g, ok := groups[r.UploadID]
		if !ok {
			g = &list.UploadGroup{
				UploadID:   r.UploadID,
				UploadDate: r.CreatedAt,
				Agents:     make(map[string]*list.AgentGroup),
			}
			groups[r.UploadID] = g
		}
		addToGroup(g, r)
	}

	out := make([]list.UploadGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out
}

// SingleUpload groups the records of one upload by agent.
func SingleUpload(uploadID string, records []list.StoredRecord) (*list.UploadGroup, error) {
	var g *list.UploadGroup
	for i := range records {
		r := &records[i]
		if r.UploadID != uploadID {
			continue
		}
		if g == nil {
			g = &list.UploadGroup{
				UploadID:   uploadID,
				UploadDate: r.CreatedAt,
				Agents:     make(map[string]*list.AgentGroup),
			}
		}
		addToGroup(g, r)
	}

	if g == nil {
		return nil, xerrors.ErrNotFound
	}
	return g, nil
}

// ByAgent groups one agent's records by upload. Uploads appear in the order
// they are first seen in records.
func ByAgent(records []list.StoredRecord) []list.AgentUploads {
	index := make(map[string]int)
	var out []list.AgentUploads

	for i := range records {
		r := &records[i]
		pos, ok := index[r.UploadID]
		if !ok {
			pos = len(out)
			index[r.UploadID] = pos
			out = append(out, list.AgentUploads{
				UploadID:   r.UploadID,
				UploadDate: r.CreatedAt,
				AgentName:  r.AgentName,
			})
		}
		u := &out[pos]
		if r.CreatedAt.Before(u.UploadDate) {
			u.UploadDate = r.CreatedAt
		}
		u.Records = append(u.Records, r.Entry())
	}
	return out
}

func addToGroup(g *list.UploadGroup, r *list.StoredRecord) {
	if r.CreatedAt.Before(g.UploadDate) {
		g.UploadDate = r.CreatedAt
	}
	g.TotalRecords++

	key := r.AgentKey()
	ag, ok := g.Agents[key]
	if !ok {
		ag = &list.AgentGroup{
			AgentName:  r.AgentName,
			AgentEmail: r.AgentEmail,
		}
		g.Agents[key] = ag
	}
	ag.Records = append(ag.Records, r.Entry())
}
