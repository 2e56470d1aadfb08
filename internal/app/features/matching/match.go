// internal/app/features/matching/match.go
package matching

import (
	"context"
	"net/http"

	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/matcher"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type matchRequest struct {
	Query     string `json:"query"`
	MatchType string `json:"match_type"`
}

// HandleMatch ranks the profiles of the requested (or detected) type
// against the query.
func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	var in matchRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode match", err, "Invalid JSON body")
		return
	}
	typ, err := matcher.Resolve(in.Query, in.MatchType)
	if err != nil {
		h.ErrLog.Fail(w, r, "match", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "match")
	defer cancel()

	pool, err := h.pool(ctx, typ)
	if err != nil {
		h.ErrLog.Fail(w, r, "load match pool", err)
		return
	}
	res, err := matcher.Match(in.Query, typ, pool)
	if err != nil {
		h.ErrLog.Fail(w, r, "match", err)
		return
	}
	h.Log.Debug("match",
		zap.String("type", res.MatchType),
		zap.Int("candidates", len(res.Candidates)),
		zap.Float64("top_score", res.Selected.Score))
	jsonutil.Write(w, http.StatusOK, res)
}

// pool loads only the profiles of the type being matched.
func (h *Handler) pool(ctx context.Context, typ string) (matcher.Pool, error) {
	var p matcher.Pool
	var err error
	switch typ {
	case matcher.TypeStudent:
		p.Students, err = studentstore.New(h.DB).All(ctx)
	case matcher.TypeProfessor:
		p.Professors, err = professorstore.New(h.DB).All(ctx)
	case matcher.TypeGroup:
		p.Groups, err = h.groupEntries(ctx)
	}
	return p, err
}

func (h *Handler) groupEntries(ctx context.Context) ([]matcher.GroupEntry, error) {
	gs, err := groupstore.New(h.DB).All(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(gs))
	for _, g := range gs {
		ids = append(ids, g.LeaderID)
	}
	leaders, err := studentstore.New(h.DB).ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]matcher.GroupEntry, 0, len(gs))
	for _, g := range gs {
		l := leaders[g.LeaderID]
		out = append(out, matcher.GroupEntry{Group: g, LeaderName: l.Name, LeaderEmail: l.Email})
	}
	return out, nil
}
