package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/claude/lightweight/internal/client"
	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet("lw "+name, flag.ContinueOnError)
}

// readPassword takes the -password flag or reads one line from stdin.
func (a *app) readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) saveLogin(token string) error {
	if err := a.state.Set(client.KeyServerURL, a.client.BaseURL()); err != nil {
		return err
	}
	return a.state.Set(client.KeyToken, token)
}

func runSetup(ctx context.Context, a *app, args []string) error {
	fs := newFlags("setup")
	password := fs.String("password", "", "password (read from stdin when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw, err := a.readPassword(*password)
	if err != nil {
		return err
	}
	token, err := a.client.Setup(ctx, pw)
	if err != nil {
		return err
	}
	if err := a.saveLogin(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	fmt.Fprintf(a.out, "Password set. Logged in to %s\n", a.client.BaseURL())
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	password := fs.String("password", "", "password (read from stdin when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	configured, err := a.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("server %s unreachable: %w", a.client.BaseURL(), err)
	}
	if !configured {
		return errors.New("server has no password yet, run `lw setup` first")
	}
	pw, err := a.readPassword(*password)
	if err != nil {
		return err
	}
	token, err := a.client.Login(ctx, pw)
	if err != nil {
		return err
	}
	if err := a.saveLogin(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	fmt.Fprintf(a.out, "Logged in to %s\n", a.client.BaseURL())
	return nil
}

func runExercises(ctx context.Context, a *app, args []string) error {
	fs := newFlags("exercises")
	all := fs.Bool("all", false, "include archived exercises")
	add := fs.String("add", "", "create an exercise with this name")
	muscle := fs.String("muscle", "", "muscle group for -add")
	equipment := fs.String("equipment", "", "equipment for -add")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *add != "" {
		in := models.ExerciseInput{Name: *add}
		if *muscle != "" {
			in.MuscleGroup = muscle
		}
		if *equipment != "" {
			in.Equipment = equipment
		}
		ex, err := a.client.CreateExercise(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created exercise %d: %s\n", ex.ID, ex.Name)
		return nil
	}

	exercises, err := a.client.ListExercises(ctx, *all)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMUSCLE\tEQUIPMENT\t")
	for _, ex := range exercises {
		name := ex.Name
		if ex.Archived {
			name += " (archived)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", ex.ID, name, deref(ex.MuscleGroup), deref(ex.Equipment))
	}
	return tw.Flush()
}

func runTemplates(ctx context.Context, a *app, args []string) error {
	fs := newFlags("templates")
	all := fs.Bool("all", false, "include archived templates")
	if err := fs.Parse(args); err != nil {
		return err
	}
	templates, err := a.client.ListTemplates(ctx, *all)
	if err != nil {
		return err
	}
	for _, t := range templates {
		fmt.Fprintf(a.out, "%d  %s\n", t.ID, t.Name)
		for _, te := range t.Exercises {
			fmt.Fprintf(a.out, "     %d. %s%s\n", te.Position, te.ExerciseName, formatTarget(&te))
		}
	}
	return nil
}

func runStart(ctx context.Context, a *app, args []string) error {
	fs := newFlags("start")
	tmplRef := fs.String("template", "", "template name or ID")
	name := fs.String("name", "", "session name")
	notes := fs.String("notes", "", "session notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var in workout.StartInput
	if *tmplRef != "" {
		t, err := resolveTemplate(ctx, a.client, *tmplRef)
		if err != nil {
			return err
		}
		in.TemplateID = &t.ID
	}
	if *name != "" {
		in.Name = name
	}
	if *notes != "" {
		in.Notes = notes
	}

	sess, err := a.client.StartSession(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Started session %d: %s\n", sess.ID, sessionTitle(sess))
	for _, se := range sess.Exercises {
		fmt.Fprintf(a.out, "  %d. %s\n", se.Position, se.ExerciseName)
	}
	return nil
}

func runStatus(ctx context.Context, a *app, args []string) error {
	fs := newFlags("status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	view, err := a.client.ActiveView(ctx)
	if err != nil {
		return err
	}
	if view == nil {
		fmt.Fprintln(a.out, "No session in progress.")
		return nil
	}
	printView(a.out, view)
	return nil
}

func transitionCommand(action string) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		fs := newFlags(action)
		id := fs.Int64("session", 0, "session ID (defaults to the session in progress)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sessionID := *id
		if sessionID == 0 {
			open, err := activeSession(ctx, a.client)
			if err != nil {
				return err
			}
			sessionID = open.ID
		}
		sess, err := a.client.Transition(ctx, sessionID, action)
		if err != nil {
			return err
		}
		elapsed := workout.FormatElapsed(workout.SessionElapsed(sess, sessionNow(sess)))
		fmt.Fprintf(a.out, "Session %d is %s (%s)\n", sess.ID, sess.Status, elapsed)
		return nil
	}
}

func runAddExercise(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add-exercise")
	ref := fs.String("exercise", "", "exercise name or ID (required)")
	notes := fs.String("notes", "", "notes for this exercise")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ref == "" {
		return errors.New("-exercise is required")
	}
	open, err := activeSession(ctx, a.client)
	if err != nil {
		return err
	}
	ex, err := resolveExercise(ctx, a.client, *ref)
	if err != nil {
		return err
	}
	in := models.SessionExerciseInput{ExerciseID: ex.ID}
	if *notes != "" {
		in.Notes = notes
	}
	se, err := a.client.AddExercise(ctx, open.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s at position %d\n", se.ExerciseName, se.Position)
	return nil
}

// runLog logs a set against the session in progress, adding the exercise to
// the session first when it is not part of it yet.
func runLog(ctx context.Context, a *app, args []string) error {
	fs := newFlags("log")
	ref := fs.String("exercise", "", "exercise name or ID (required)")
	reps := fs.Int("reps", 0, "reps performed (required)")
	weight := fs.Float64("weight", -1, "weight in kg (omit for bodyweight)")
	setType := fs.String("type", "", "set type, e.g. warmup or drop (default normal)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ref == "" || *reps == 0 {
		return errors.New("-exercise and -reps are required")
	}

	view, err := a.client.ActiveView(ctx)
	if err != nil {
		return err
	}
	if view == nil {
		return errors.New("no session in progress, run `lw start` first")
	}
	ex, err := resolveExercise(ctx, a.client, *ref)
	if err != nil {
		return err
	}

	var target *workout.RepTarget
	var seID int64
	for _, ev := range view.Exercises {
		if ev.ExerciseID == ex.ID {
			seID, target = ev.ID, ev.RepTarget
			break
		}
	}
	if seID == 0 {
		se, err := a.client.AddExercise(ctx, view.ID, models.SessionExerciseInput{ExerciseID: ex.ID})
		if err != nil {
			return err
		}
		seID = se.ID
		fmt.Fprintf(a.out, "Added %s to the session\n", se.ExerciseName)
	}

	in := models.SetInput{Reps: *reps}
	if *weight >= 0 {
		in.WeightKg = weight
	}
	if *setType != "" {
		in.SetType = setType
	}
	set, err := a.client.AddSet(ctx, view.ID, seID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s set %d: %s", ex.Name, set.SetNumber, formatSet(*set))
	if target != nil {
		fmt.Fprintf(a.out, "  [%s]", workout.Classify(set.Reps, target))
	}
	fmt.Fprintln(a.out)
	return nil
}

func runUndo(ctx context.Context, a *app, args []string) error {
	fs := newFlags("undo")
	if err := fs.Parse(args); err != nil {
		return err
	}
	open, err := activeSession(ctx, a.client)
	if err != nil {
		return err
	}

	var last *models.WorkoutSet
	var exName string
	for _, se := range open.Exercises {
		for i := range se.Sets {
			s := &se.Sets[i]
			if last == nil || s.CompletedAt.After(last.CompletedAt) ||
				(s.CompletedAt.Equal(last.CompletedAt) && s.ID > last.ID) {
				last, exName = s, se.ExerciseName
			}
		}
	}
	if last == nil {
		return errors.New("no sets logged in this session")
	}
	if err := a.client.DeleteSet(ctx, last.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %s set %d: %s\n", exName, last.SetNumber, formatSet(*last))
	return nil
}

func runHistory(ctx context.Context, a *app, args []string) error {
	fs := newFlags("history")
	ref := fs.String("exercise", "", "exercise name or ID (required)")
	limit := fs.Int("limit", 0, "number of sessions (default 10)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ref == "" {
		return errors.New("-exercise is required")
	}
	ex, err := resolveExercise(ctx, a.client, *ref)
	if err != nil {
		return err
	}
	hist, err := a.client.ExerciseHistory(ctx, ex.ID, *limit)
	if err != nil {
		return err
	}
	if len(hist.Sessions) == 0 {
		fmt.Fprintf(a.out, "No completed sessions with %s yet.\n", hist.ExerciseName)
		return nil
	}
	for _, h := range hist.Sessions {
		fmt.Fprintf(a.out, "%s  %s\n", h.Date.Local().Format("2006-01-02"), deref(h.SessionName))
		for _, s := range h.Sets {
			fmt.Fprintf(a.out, "    %d. %s\n", s.SetNumber, formatSet(s))
		}
	}
	return nil
}

func runSessions(ctx context.Context, a *app, args []string) error {
	fs := newFlags("sessions")
	limit := fs.Int("limit", 20, "number of sessions")
	offset := fs.Int("offset", 0, "sessions to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sessions, err := a.client.ListSessions(ctx, models.SessionListParams{Limit: *limit, Offset: *offset})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTARTED\tSTATUS\t")
	for _, s := range sessions {
		name := "Freeform"
		if s.TemplateName != nil {
			name = *s.TemplateName
		}
		if s.Name != nil {
			name = *s.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", s.ID, name, s.StartedAt.Local().Format("2006-01-02 15:04"), s.Status)
	}
	return tw.Flush()
}

// runImport uploads JSON files, skipping any whose size and hash were
// already imported.
func runImport(ctx context.Context, a *app, args []string) error {
	fs := newFlags("import")
	dryRun := fs.Bool("dry-run", false, "validate and report without writing")
	force := fs.Bool("force", false, "import files even if already imported")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: lw import [-dry-run] [-force] <file or dir>...")
	}

	files, err := expandImportPaths(fs.Args())
	if err != nil {
		return err
	}

	var imported, skipped, failed int
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		hash, err := client.HashFile(path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", path, err)
		}
		abs, _ := filepath.Abs(path)
		if !*force {
			done, err := a.state.IsImported(abs, info.Size(), hash)
			if err != nil {
				return err
			}
			if done {
				skipped++
				a.log.Debug("already imported", "file", path)
				continue
			}
		}

		res, err := importFile(ctx, a.client, path, *dryRun)
		if err != nil {
			failed++
			fmt.Fprintf(a.out, "%s: %v\n", path, err)
			continue
		}
		imported++
		fmt.Fprintf(a.out, "%s: %d sessions", path, len(res.Sessions))
		if len(res.ExercisesCreated) > 0 {
			fmt.Fprintf(a.out, ", new exercises: %s", strings.Join(res.ExercisesCreated, ", "))
		}
		fmt.Fprintln(a.out)
		for _, w := range res.Warnings {
			fmt.Fprintf(a.out, "  warning: %s\n", w)
		}
		if !*dryRun {
			if err := a.state.MarkImported(abs, info.Size(), hash); err != nil {
				a.log.Warn("failed to record import", "file", path, "error", err)
			}
		}
	}

	fmt.Fprintf(a.out, "\n%d imported, %d skipped (already imported), %d failed\n", imported, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d files failed", failed)
	}
	return nil
}

func importFile(ctx context.Context, c *client.Client, path string, dryRun bool) (*models.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.Import(ctx, f, filepath.Base(path), dryRun)
}

// expandImportPaths replaces directories with the .json files they contain,
// in name order.
func expandImportPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func activeSession(ctx context.Context, c *client.Client) (*models.Session, error) {
	open, err := c.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, errors.New("no session in progress")
	}
	return open, nil
}

// resolveExercise accepts an ID or a case-insensitive name.
func resolveExercise(ctx context.Context, c *client.Client, ref string) (*models.Exercise, error) {
	exercises, err := c.ListExercises(ctx, false)
	if err != nil {
		return nil, err
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	for i, ex := range exercises {
		if (idErr == nil && ex.ID == id) || strings.EqualFold(ex.Name, strings.TrimSpace(ref)) {
			return &exercises[i], nil
		}
	}
	return nil, workout.NotFoundf("exercise %q not found (see `lw exercises`)", ref)
}

// resolveTemplate accepts an ID or a case-insensitive name.
func resolveTemplate(ctx context.Context, c *client.Client, ref string) (*models.Template, error) {
	templates, err := c.ListTemplates(ctx, false)
	if err != nil {
		return nil, err
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	for i, t := range templates {
		if (idErr == nil && t.ID == id) || strings.EqualFold(t.Name, strings.TrimSpace(ref)) {
			return &templates[i], nil
		}
	}
	return nil, workout.NotFoundf("template %q not found (see `lw templates`)", ref)
}
