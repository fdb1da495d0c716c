package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/observability/metrics"
)

// Repair kinds, used as the "kind" metric label.
const (
	RepairDanglingRef = "dangling_ref"
	RepairMissingRef  = "missing_ref"
	RepairOrphanHobby = "orphan_hobby"
)

const defaultBatchSize = 200

// Report counts the repairs made by one reconciliation pass
type Report struct {
	DanglingRefs  int
	MissingRefs   int
	OrphanHobbies int
	Failures      int
}

// Reconciler periodically repairs the back-references that a failed
// second phase leaves behind:
//   - hobby ids on a user that point at no hobby are pulled
//   - a hobby missing from its owner's hobbies is added back
//   - hobbies whose owner is gone are deleted
type Reconciler struct {
	users     domain.UserRepository
	hobbies   domain.HobbyRepository
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewReconciler creates a new reconciler
func NewReconciler(
	users domain.UserRepository,
	hobbies domain.HobbyRepository,
	logger *slog.Logger,
	interval time.Duration,
) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		users:     users,
		hobbies:   hobbies,
		logger:    logger,
		interval:  interval,
		batchSize: defaultBatchSize,
	}
}

// Start runs a pass every interval until ctx is cancelled
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", slog.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("reconciliation failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce makes a single reconciliation pass. Hobbies are read before users
// so a user created during the pass cannot make its new hobbies look orphaned.
func (r *Reconciler) RunOnce(ctx context.Context) (report Report, err error) {
	start := time.Now()
	defer func() {
		result := "success"
		if err != nil {
			result = "error"
		}
		metrics.ObserveReconcileRun(result, time.Since(start))
	}()

	hobbies, err := listAll(ctx, r.batchSize, r.hobbies.List)
	if err != nil {
		return report, fmt.Errorf("failed to list hobbies: %w", err)
	}
	users, err := listAll(ctx, r.batchSize, r.users.List)
	if err != nil {
		return report, fmt.Errorf("failed to list users: %w", err)
	}

	hobbyByID := make(map[string]*domain.Hobby, len(hobbies))
	for _, h := range hobbies {
		hobbyByID[h.ID] = h
	}
	userByID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	// 1. Pull references to hobbies that do not exist
	for _, u := range users {
		var candidates []string
		for _, id := range u.Hobbies {
			if _, ok := hobbyByID[id]; !ok {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		// A hobby created after the listing is not dangling.
		dangling, err := r.confirmMissingHobbies(ctx, candidates)
		if err != nil {
			return report, err
		}
		for _, id := range dangling {
			err := r.users.RemoveHobby(ctx, u.ID, id)
			if r.record(RepairDanglingRef, err, slog.String("user_id", u.ID), slog.String("hobby_id", id)) {
				report.DanglingRefs++
			} else {
				report.Failures++
			}
		}
	}

	// 2. Re-link hobbies missing from their owner, collect orphans
	var orphanCandidates, unlinked []*domain.Hobby
	for _, h := range hobbies {
		owner, ok := userByID[h.UserID]
		if !ok {
			orphanCandidates = append(orphanCandidates, h)
			continue
		}
		if !slices.Contains(owner.Hobbies, h.ID) {
			unlinked = append(unlinked, h)
		}
	}

	// A hobby deleted after the listing must not be linked again.
	unlinked, err = r.confirmLiveHobbies(ctx, unlinked)
	if err != nil {
		return report, err
	}
	for _, h := range unlinked {
		err := r.users.AddHobby(ctx, h.UserID, h.ID)
		if r.record(RepairMissingRef, err, slog.String("user_id", h.UserID), slog.String("hobby_id", h.ID)) {
			report.MissingRefs++
		} else {
			report.Failures++
		}
	}

	// 3. Delete hobbies whose owner is confirmed gone
	orphans, err := r.confirmOrphans(ctx, orphanCandidates)
	if err != nil {
		return report, err
	}
	if len(orphans) > 0 {
		n, err := r.hobbies.DeleteMany(ctx, orphans)
		if r.record(RepairOrphanHobby, err, slog.Int("hobbies", len(orphans))) {
			report.OrphanHobbies += int(n)
		} else {
			report.Failures++
		}
	}

	r.logger.Info("reconciliation complete",
		slog.Int("users", len(users)),
		slog.Int("hobbies", len(hobbies)),
		slog.Int("dangling_refs", report.DanglingRefs),
		slog.Int("missing_refs", report.MissingRefs),
		slog.Int("orphan_hobbies", report.OrphanHobbies),
		slog.Int("failures", report.Failures),
		slog.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// record logs and counts one repair and reports whether it succeeded. A
// target that vanished in the meantime counts as done.
func (r *Reconciler) record(kind string, err error, attrs ...any) bool {
	switch {
	case err == nil:
		metrics.ObserveReconcileRepair(kind, "success")
		r.logger.Info("repaired reference", append([]any{slog.String("kind", kind)}, attrs...)...)
		return true
	case errors.Is(err, domain.ErrNotFound):
		metrics.ObserveReconcileRepair(kind, "missing")
		return true
	default:
		metrics.ObserveReconcileRepair(kind, "failure")
		r.logger.Error("repair failed",
			append([]any{slog.String("kind", kind), slog.String("error", err.Error())}, attrs...)...,
		)
		return false
	}
}

func (r *Reconciler) confirmMissingHobbies(ctx context.Context, ids []string) ([]string, error) {
	found, err := r.hobbies.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm hobbies: %w", err)
	}
	return slices.DeleteFunc(ids, func(id string) bool {
		return slices.ContainsFunc(found, func(h *domain.Hobby) bool { return h.ID == id })
	}), nil
}

func (r *Reconciler) confirmLiveHobbies(ctx context.Context, candidates []*domain.Hobby) ([]*domain.Hobby, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(candidates))
	for _, h := range candidates {
		ids = append(ids, h.ID)
	}
	found, err := r.hobbies.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm hobbies: %w", err)
	}
	return slices.DeleteFunc(candidates, func(h *domain.Hobby) bool {
		return !slices.ContainsFunc(found, func(f *domain.Hobby) bool { return f.ID == h.ID })
	}), nil
}

func (r *Reconciler) confirmOrphans(ctx context.Context, candidates []*domain.Hobby) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	var owners []string
	for _, h := range candidates {
		if !slices.Contains(owners, h.UserID) {
			owners = append(owners, h.UserID)
		}
	}
	found, err := r.users.GetMany(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm owners: %w", err)
	}

	live := make(map[string]bool, len(found))
	for _, u := range found {
		live[u.ID] = true
	}
	var orphans []string
	for _, h := range candidates {
		if !live[h.UserID] {
			orphans = append(orphans, h.ID)
		}
	}
	return orphans, nil
}

// listAll pages through a collection until a short page comes back.
func listAll[T any](ctx context.Context, batch int, list func(context.Context, domain.Page) ([]T, error)) ([]T, error) {
	var all []T
	for offset := 0; ; offset += batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := list(ctx, domain.Page{Limit: batch, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < batch {
			return all, nil
		}
	}
}
