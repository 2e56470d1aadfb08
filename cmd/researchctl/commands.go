package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dalemusser/researchhub/internal/client"
	"github.com/dalemusser/researchhub/internal/client/bell"
	"github.com/dalemusser/researchhub/internal/client/chat"
	"github.com/dalemusser/researchhub/internal/client/csvimport"
	"github.com/dalemusser/researchhub/internal/client/dashboard"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func objectID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	s := a.sub("login", "")
	email := s.String("email", "", "account email")
	password := s.String("password", os.Getenv("RESEARCHCTL_PASSWORD"), "password (or RESEARCHCTL_PASSWORD)")
	if _, err := s.parse(args, 0); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(a.out, "--email and --password are required")
		return errUsage
	}
	if err := a.c.Auth.Login(ctx, *email, *password); err != nil {
		return err
	}
	u, err := a.c.Auth.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s (%s)\n", u.Name, u.Role)
	return nil
}

func cmdLogout(_ context.Context, a *app, args []string) error {
	if _, err := a.sub("logout", "").parse(args, 0); err != nil {
		return err
	}
	if err := a.c.Auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

// session restores the stored login, failing when there is none.
func (a *app) session(ctx context.Context) (models.User, error) {
	u, ok, err := a.c.Bootstrap(ctx)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, client.ErrUnauthorized
	}
	return u, nil
}

func cmdMe(ctx context.Context, a *app, args []string) error {
	if _, err := a.sub("me", "").parse(args, 0); err != nil {
		return err
	}
	u, err := a.session(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\nid:   %s\n", u.Name, u.Email, u.Role, u.ID.Hex())
	return nil
}

func cmdDashboard(ctx context.Context, a *app, args []string) error {
	if _, err := a.sub("dashboard", "").parse(args, 0); err != nil {
		return err
	}
	u, err := a.session(ctx)
	if err != nil {
		return err
	}
	src := dashboard.Source{C: a.c}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch u.Role {
	case models.RoleStudent:
		s := dashboard.NewStudentStore(src, a.log)
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		fmt.Fprintf(tw, "unread notifications\t%d\n", s.UnreadCount())
		fmt.Fprintf(tw, "pending invitations\t%d\n", len(s.PendingInvitations()))
		for _, g := range s.MyGroups() {
			fmt.Fprintf(tw, "my group\t%s\t%s\t%d/%d\n", g.ID.Hex(), g.Name, g.CurrentMembers, g.MaxMembers)
		}
		for _, g := range s.OpenGroups() {
			fmt.Fprintf(tw, "open group\t%s\t%s\t%d/%d\n", g.ID.Hex(), g.Name, g.CurrentMembers, g.MaxMembers)
		}
	case models.RoleProfessor:
		s := dashboard.NewProfessorStore(src, a.log)
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		fmt.Fprintf(tw, "unread notifications\t%d\n", s.UnreadCount())
		fmt.Fprintf(tw, "available slots\t%d\n", s.AvailableSlots())
		for _, r := range s.PendingRequests() {
			fmt.Fprintf(tw, "pending request\t%s\t%s\t%s\n", r.ID.Hex(), r.GroupName, r.RequesterName)
		}
		for _, g := range s.MentoredGroups() {
			fmt.Fprintf(tw, "mentored group\t%s\t%s\n", g.ID.Hex(), g.Name)
		}
	case models.RoleAdmin:
		s := dashboard.NewAdminStore(src, a.log)
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		t := s.Totals()
		fmt.Fprintf(tw, "students\t%d\t(%d looking for a group)\n", t.Students, t.LookingForGroup)
		fmt.Fprintf(tw, "professors\t%d\t(%d open mentor slots)\n", t.Professors, t.OpenMentorSlots)
		fmt.Fprintf(tw, "research papers\t%d\n", t.Papers)
	default:
		return fmt.Errorf("unknown role %q", u.Role)
	}
	return nil
}

func (a *app) loadBell(ctx context.Context) (*bell.Bell, error) {
	if _, err := a.session(ctx); err != nil {
		return nil, err
	}
	b := bell.New(a.c.Notifications, a.c.Mentorship, a.log)
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func cmdNotifications(ctx context.Context, a *app, args []string) error {
	s := a.sub("notifications", "")
	unread := s.Bool("unread", false, "only unread notifications")
	if _, err := s.parse(args, 0); err != nil {
		return err
	}
	b, err := a.loadBell(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	fmt.Fprintf(a.out, "%d unread\n", b.UnreadCount())
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, n := range b.Notifications() {
		if *unread && n.Read {
			continue
		}
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, n.ID.Hex(), n.Type, oneLine(n.Title))
	}
	return tw.Flush()
}

func cmdOpen(ctx context.Context, a *app, args []string) error {
	pos, err := a.sub("open", "<notification-id>").parse(args, 1)
	if err != nil {
		return err
	}
	id, err := objectID(pos[0])
	if err != nil {
		return err
	}
	b, err := a.loadBell(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	o, err := b.Open(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n%s\n", o.Notification.Title, o.Notification.Message)
	if o.Detail != "" && o.Detail != o.Notification.Message {
		fmt.Fprintf(a.out, "reason: %s\n", o.Detail)
	}
	return nil
}

func cmdAct(ctx context.Context, a *app, args []string) error {
	pos, err := a.sub("act", "<notification-id> accept|reject").parse(args, 2)
	if err != nil {
		return err
	}
	id, err := objectID(pos[0])
	if err != nil {
		return err
	}
	action := strings.ToLower(pos[1])
	if action != client.ActionAccept && action != client.ActionReject {
		return fmt.Errorf("action must be %s or %s", client.ActionAccept, client.ActionReject)
	}
	b, err := a.loadBell(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := b.Act(ctx, id, action)
	if errors.Is(err, bell.ErrNotActionable) {
		return errors.New("only group invitations and join requests can be answered here")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", res.Message, res.Status)
	return nil
}

func cmdChat(ctx context.Context, a *app, args []string) error {
	s := a.sub("chat", "<group-id>")
	send := s.String("send", "", "post a message before listing")
	if _, err := s.parse(args, 1); err != nil {
		return err
	}
	gid, err := objectID(s.Arg(0))
	if err != nil {
		return err
	}
	if _, err := a.session(ctx); err != nil {
		return err
	}
	p := chat.New(a.c.Chat, gid, a.log)
	defer p.Close()
	if err := p.Open(ctx); err != nil {
		return err
	}
	if *send != "" {
		if _, err := p.Send(ctx, *send); err != nil {
			return err
		}
	}
	for _, m := range p.Messages() {
		edited := ""
		if m.EditedAt != nil {
			edited = " (edited)"
		}
		fmt.Fprintf(a.out, "[%s] %s: %s%s\n", m.CreatedAt.Local().Format("Jan 2 15:04"), m.SenderName, m.Message, edited)
	}
	return nil
}

func cmdRespond(ctx context.Context, a *app, args []string) error {
	s := a.sub("respond", "<mentorship-request-id> accept|reject")
	reason := s.String("reason", "", "rejection reason (required to reject)")
	if _, err := s.parse(args, 2); err != nil {
		return err
	}
	id, err := objectID(s.Arg(0))
	if err != nil {
		return err
	}
	var status client.RequestStatus
	switch strings.ToLower(s.Arg(1)) {
	case client.ActionAccept:
		status = client.Accepted{}
	case client.ActionReject:
		status = client.Rejected{Reason: *reason}
	default:
		return errors.New("answer must be accept or reject")
	}
	req, err := a.c.Mentorship.UpdateStatus(ctx, id, status)
	if errors.Is(err, client.ErrReasonRequired) {
		return errors.New("--reason is required when rejecting")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "request %s is now %s\n", req.ID.Hex(), req.Status)
	return nil
}

func cmdMatch(ctx context.Context, a *app, args []string) error {
	s := a.sub("match", "<query>")
	typ := s.String("type", "", "student, professor or group (detected when empty)")
	if _, err := s.parse(args, 1); err != nil {
		return err
	}
	res, err := a.c.Matching.Match(ctx, s.Arg(0), *typ)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "best %s: %s <%s>\n%s\n\n", res.MatchType, res.Selected.Name, res.Selected.Email, res.Reasoning)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, c := range res.Candidates {
		fmt.Fprintf(tw, "%.2f\t%s\t%s\n", c.Score, c.Name, c.Email)
	}
	return tw.Flush()
}

func kindArg(s string) (csvimport.Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(s), "s") {
	case string(csvimport.Students):
		return csvimport.Students, nil
	case string(csvimport.Professors):
		return csvimport.Professors, nil
	}
	return "", csvimport.ErrUnknownKind
}

func cmdImport(ctx context.Context, a *app, args []string) error {
	s := a.sub("import", "students|professors <file.csv>")
	dryRun := s.Bool("dry-run", false, "validate only")
	if _, err := s.parse(args, 2); err != nil {
		return err
	}
	kind, err := kindArg(s.Arg(0))
	if err != nil {
		return err
	}
	f, err := os.Open(s.Arg(1))
	if err != nil {
		return err
	}
	defer f.Close()

	batch, err := csvimport.Parse(f, kind)
	var rowErrs csvimport.RowErrors
	if errors.As(err, &rowErrs) {
		for _, e := range rowErrs {
			fmt.Fprintln(a.out, e.Error())
		}
		return fmt.Errorf("%d problem(s) found; nothing uploaded", len(rowErrs))
	}
	if err != nil {
		return err
	}
	if *dryRun {
		fmt.Fprintf(a.out, "%d %s row(s) valid\n", batch.Len(), kind)
		return nil
	}

	u := csvimport.Uploader{Students: a.c.Students, Professors: a.c.Professors, Log: a.log}
	res, err := u.Submit(ctx, batch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created %d, failed %d\n", res.Success, res.Failed)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, c := range res.Accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Username, c.Password)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(tw, "error\t%s\n", e)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	a.log.Debug("import finished", zap.String("kind", string(kind)), zap.Int("rows", batch.Len()))
	return nil
}

func cmdTemplate(_ context.Context, a *app, args []string) error {
	pos, err := a.sub("template", "students|professors").parse(args, 1)
	if err != nil {
		return err
	}
	kind, err := kindArg(pos[0])
	if err != nil {
		return err
	}
	data, err := csvimport.Template(kind)
	if err != nil {
		return err
	}
	_, err = a.out.Write(data)
	return err
}
