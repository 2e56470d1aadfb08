// Package dashboard holds the per-role view state a front end renders:
// what a student, professor or admin sees on landing, refreshed on demand.
//
// Each store replaces its whole snapshot on Refresh. A failed refresh
// leaves the previous snapshot in place.
package dashboard

import (
	"context"
	"sync"

	"github.com/dalemusser/researchhub/internal/client"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StudentSource is what the student dashboard reads.
type StudentSource interface {
	StudentProfile(ctx context.Context) (models.Student, error)
	MyGroups(ctx context.Context) ([]models.GroupWithMentors, error)
	AllGroups(ctx context.Context) ([]models.GroupWithMentors, error)
	Invitations(ctx context.Context, studentID primitive.ObjectID) ([]models.GroupInvitation, error)
	UnreadCount(ctx context.Context) (int, error)
}

// ProfessorSource is what the professor dashboard reads.
type ProfessorSource interface {
	ProfessorProfile(ctx context.Context) (models.Professor, error)
	MyGroups(ctx context.Context) ([]models.GroupWithMentors, error)
	MentorshipRequests(ctx context.Context, professorID primitive.ObjectID) ([]models.MentorshipRequestWithDetails, error)
	UnreadCount(ctx context.Context) (int, error)
}

// AdminSource is what the admin dashboard reads.
type AdminSource interface {
	Students(ctx context.Context) ([]models.StudentWithUser, error)
	Professors(ctx context.Context) ([]models.ProfessorWithUser, error)
	Papers(ctx context.Context) ([]models.ResearchPaper, error)
}

// listLimit caps the list endpoints the dashboards read.
const listLimit = 1000

// Source adapts a Client to every dashboard source interface.
type Source struct{ C *client.Client }

func (s Source) StudentProfile(ctx context.Context) (models.Student, error) {
	return s.C.Auth.StudentProfile(ctx)
}

func (s Source) ProfessorProfile(ctx context.Context) (models.Professor, error) {
	return s.C.Auth.ProfessorProfile(ctx)
}

func (s Source) MyGroups(ctx context.Context) ([]models.GroupWithMentors, error) {
	return s.C.Groups.Mine(ctx)
}

func (s Source) AllGroups(ctx context.Context) ([]models.GroupWithMentors, error) {
	return s.C.Groups.List(ctx, client.Page{Limit: listLimit})
}

func (s Source) Invitations(ctx context.Context, studentID primitive.ObjectID) ([]models.GroupInvitation, error) {
	return s.C.Groups.Invitations(ctx, studentID)
}

func (s Source) UnreadCount(ctx context.Context) (int, error) {
	return s.C.Notifications.UnreadCount(ctx)
}

func (s Source) MentorshipRequests(ctx context.Context, professorID primitive.ObjectID) ([]models.MentorshipRequestWithDetails, error) {
	return s.C.Mentorship.ForProfessor(ctx, professorID, "")
}

func (s Source) Students(ctx context.Context) ([]models.StudentWithUser, error) {
	return s.C.Students.List(ctx, client.StudentFilter{Page: client.Page{Limit: listLimit}})
}

func (s Source) Professors(ctx context.Context) ([]models.ProfessorWithUser, error) {
	return s.C.Professors.List(ctx, client.ProfessorFilter{Page: client.Page{Limit: listLimit}})
}

func (s Source) Papers(ctx context.Context) ([]models.ResearchPaper, error) {
	return s.C.Research.List(ctx, "", 0, client.Page{Limit: listLimit})
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

/*─────────────────────────────────────────────────────────────────────────────*
| Student                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type studentSnapshot struct {
	profile     models.Student
	myGroups    []models.GroupWithMentors
	groups      []models.GroupWithMentors
	invitations []models.GroupInvitation
	unread      int
}

// StudentStore is the student landing page.
type StudentStore struct {
	src StudentSource
	log *zap.Logger

	mu    sync.RWMutex
	snap  studentSnapshot
	ready bool
}

func NewStudentStore(src StudentSource, logger *zap.Logger) *StudentStore {
	return &StudentStore{src: src, log: nopIfNil(logger)}
}

// Refresh refetches everything. The profile is loaded first because
// invitations are keyed by it.
func (s *StudentStore) Refresh(ctx context.Context) error {
	var next studentSnapshot
	p, err := s.src.StudentProfile(ctx)
	if err != nil {
		s.log.Warn("student dashboard: profile", zap.Error(err))
		return err
	}
	next.profile = p

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { next.myGroups, err = s.src.MyGroups(gctx); return })
	g.Go(func() (err error) { next.groups, err = s.src.AllGroups(gctx); return })
	g.Go(func() (err error) { next.invitations, err = s.src.Invitations(gctx, p.ID); return })
	g.Go(func() (err error) { next.unread, err = s.src.UnreadCount(gctx); return })
	if err := g.Wait(); err != nil {
		s.log.Warn("student dashboard: refresh", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.snap, s.ready = next, true
	s.mu.Unlock()
	return nil
}

// Ready reports whether a refresh has succeeded.
func (s *StudentStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *StudentStore) Profile() models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.profile
}

func (s *StudentStore) MyGroups() []models.GroupWithMentors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.GroupWithMentors(nil), s.snap.myGroups...)
}

// LedGroup returns the group the student leads, if any.
func (s *StudentStore) LedGroup() (models.GroupWithMentors, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.snap.myGroups {
		if g.LeaderID == s.snap.profile.ID {
			return g, true
		}
	}
	return models.GroupWithMentors{}, false
}

// PendingInvitations filters out answered invitations.
func (s *StudentStore) PendingInvitations() []models.GroupInvitation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.GroupInvitation
	for _, inv := range s.snap.invitations {
		if inv.Status == models.StatusPending {
			out = append(out, inv)
		}
	}
	return out
}

// OpenGroups lists groups with a free seat that the student is not in.
func (s *StudentStore) OpenGroups() []models.GroupWithMentors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mine := make(map[primitive.ObjectID]bool, len(s.snap.myGroups))
	for _, g := range s.snap.myGroups {
		mine[g.ID] = true
	}
	var out []models.GroupWithMentors
	for _, g := range s.snap.groups {
		if !mine[g.ID] && g.CurrentMembers < g.MaxMembers {
			out = append(out, g)
		}
	}
	return out
}

func (s *StudentStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.unread
}

/*─────────────────────────────────────────────────────────────────────────────*
| Professor                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type professorSnapshot struct {
	profile  models.Professor
	groups   []models.GroupWithMentors
	requests []models.MentorshipRequestWithDetails
	unread   int
}

// ProfessorStore is the professor landing page.
type ProfessorStore struct {
	src ProfessorSource
	log *zap.Logger

	mu   sync.RWMutex
	snap professorSnapshot
}

func NewProfessorStore(src ProfessorSource, logger *zap.Logger) *ProfessorStore {
	return &ProfessorStore{src: src, log: nopIfNil(logger)}
}

func (s *ProfessorStore) Refresh(ctx context.Context) error {
	var next professorSnapshot
	p, err := s.src.ProfessorProfile(ctx)
	if err != nil {
		s.log.Warn("professor dashboard: profile", zap.Error(err))
		return err
	}
	next.profile = p

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { next.groups, err = s.src.MyGroups(gctx); return })
	g.Go(func() (err error) { next.requests, err = s.src.MentorshipRequests(gctx, p.ID); return })
	g.Go(func() (err error) { next.unread, err = s.src.UnreadCount(gctx); return })
	if err := g.Wait(); err != nil {
		s.log.Warn("professor dashboard: refresh", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return nil
}

func (s *ProfessorStore) Profile() models.Professor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.profile
}

func (s *ProfessorStore) AvailableSlots() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.profile.AvailableSlots
}

func (s *ProfessorStore) MentoredGroups() []models.GroupWithMentors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.GroupWithMentors(nil), s.snap.groups...)
}

// PendingRequests are the mentorship requests awaiting a decision.
func (s *ProfessorStore) PendingRequests() []models.MentorshipRequestWithDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MentorshipRequestWithDetails
	for _, r := range s.snap.requests {
		if r.Status == models.StatusPending {
			out = append(out, r)
		}
	}
	return out
}

func (s *ProfessorStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.unread
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type adminSnapshot struct {
	students   []models.StudentWithUser
	professors []models.ProfessorWithUser
	papers     []models.ResearchPaper
}

// AdminStore backs the admin overview.
type AdminStore struct {
	src AdminSource
	log *zap.Logger

	mu   sync.RWMutex
	snap adminSnapshot
}

func NewAdminStore(src AdminSource, logger *zap.Logger) *AdminStore {
	return &AdminStore{src: src, log: nopIfNil(logger)}
}

func (s *AdminStore) Refresh(ctx context.Context) error {
	var next adminSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { next.students, err = s.src.Students(gctx); return })
	g.Go(func() (err error) { next.professors, err = s.src.Professors(gctx); return })
	g.Go(func() (err error) { next.papers, err = s.src.Papers(gctx); return })
	if err := g.Wait(); err != nil {
		s.log.Warn("admin dashboard: refresh", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return nil
}

// Totals is the admin summary line.
type Totals struct {
	Students        int
	Professors      int
	Papers          int
	LookingForGroup int
	OpenMentorSlots int
}

func (s *AdminStore) Totals() Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := Totals{
		Students:   len(s.snap.students),
		Professors: len(s.snap.professors),
		Papers:     len(s.snap.papers),
	}
	for _, st := range s.snap.students {
		if st.LookingForGroup {
			t.LookingForGroup++
		}
	}
	for _, p := range s.snap.professors {
		t.OpenMentorSlots += p.AvailableSlots
	}
	return t
}

// ProfessorsWithSlots lists professors who can take another group.
func (s *AdminStore) ProfessorsWithSlots() []models.ProfessorWithUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ProfessorWithUser
	for _, p := range s.snap.professors {
		if p.AvailableSlots > 0 {
			out = append(out, p)
		}
	}
	return out
}
