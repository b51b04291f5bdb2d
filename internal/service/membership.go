package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"collabolab/internal/logger"
	"collabolab/internal/metrics"
	"collabolab/internal/model"
	"collabolab/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// maxDeleteUserAttempts bounds how often DeleteUser chases projects joined
// while the account was being detached.
const maxDeleteUserAttempts = 5

var errMembershipChanged = errors.New("memberships changed during account deletion")

type LeaveReason int

const (
	LeaveVoluntary LeaveReason = iota
	LeaveRemoved
)

func (r LeaveReason) String() string {
	if r == LeaveRemoved {
		return "removed"
	}
	return "voluntary"
}

// Membership keeps User.Projects and Project.Members in step. Every change
// to either list happens in one transaction that locks the project row and
// then the user rows in ascending id order.
type Membership struct {
	store     repository.Store
	notifier  *Notifier
	messenger *Messenger
	log       *logger.Logger
}

func NewMembership(store repository.Store, notifier *Notifier, messenger *Messenger, log *logger.Logger) *Membership {
	return &Membership{store: store, notifier: notifier, messenger: messenger, log: log}
}

// JoinProject adds the user to the project on both sides and grants the
// default permission record. It repairs one-sided membership and reports
// whether anything changed.
func (m *Membership) JoinProject(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	_, _, joined, err := m.join(ctx, projectID, userID)
	return joined, err
}

func (m *Membership) join(ctx context.Context, projectID, userID uuid.UUID) (*model.Project, *model.User, bool, error) {
	var (
		project *model.Project
		user    *model.User
		joined  bool
	)

	err := m.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Projects().GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		u, err := tx.Users().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if p.AddMember(userID) {
			if err := tx.Projects().SetMembers(ctx, p.ID, p.Members); err != nil {
				return err
			}
			joined = true
		}
		if u.AddProject(projectID) {
			if err := tx.Users().SetProjects(ctx, u.ID, u.Projects); err != nil {
				return err
			}
			joined = true
		}
		if err := tx.Permissions().Ensure(ctx, model.DefaultPermission(projectID, userID)); err != nil {
			return err
		}

		project, user = p, u
		return nil
	})
	if err != nil {
		return nil, nil, false, wrapNotFound(err)
	}

	m.notifier.Subscribe(ctx, user.DeviceToken, project.Topic())
	if joined {
		metrics.MembershipOpsTotal.WithLabelValues("join").Inc()
		m.log.WithContext(ctx).Info("user joined project", "project_id", projectID, "user_id", userID)
	}
	return project, user, joined, nil
}

// LeaveProject dissociates the user from the project: both list entries,
// the permission record and task assignments go in one transaction. Leaving
// a project the user is not part of is a no-op.
func (m *Membership) LeaveProject(ctx context.Context, projectID, userID uuid.UUID, reason LeaveReason) error {
	return m.leave(ctx, projectID, userID, reason, true)
}

func (m *Membership) leave(ctx context.Context, projectID, userID uuid.UUID, reason LeaveReason, notifyUser bool) error {
	var (
		project *model.Project
		user    *model.User
		left    bool
	)

	err := m.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Projects().GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if p.OwnerID == userID {
			return ErrOwnerCannotLeave
		}

		u, err := tx.Users().GetForUpdate(ctx, userID)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}

		removedMember := p.RemoveMember(userID)
		removedProject := u != nil && u.RemoveProject(projectID)
		if !removedMember && !removedProject {
			return nil
		}

		if removedMember {
			if err := tx.Projects().SetMembers(ctx, p.ID, p.Members); err != nil {
				return err
			}
		}
		if removedProject {
			if err := tx.Users().SetProjects(ctx, u.ID, u.Projects); err != nil {
				return err
			}
		}
		if err := tx.Permissions().Delete(ctx, projectID, userID); err != nil {
			return err
		}
		n, err := tx.Tasks().Unassign(ctx, projectID, userID)
		if err != nil {
			return err
		}
		if n > 0 {
			m.log.WithContext(ctx).Debug("tasks unassigned", "project_id", projectID, "user_id", userID, "count", n)
		}

		project, user, left = p, u, true
		return nil
	})
	if err != nil {
		return wrapNotFound(err)
	}
	if !left {
		return nil
	}

	metrics.MembershipOpsTotal.WithLabelValues("leave_" + reason.String()).Inc()
	m.afterLeave(ctx, project, user, reason, notifyUser)
	return nil
}

func (m *Membership) afterLeave(ctx context.Context, project *model.Project, user *model.User, reason LeaveReason, notifyUser bool) {
	log := m.log.WithContext(ctx)
	name := "A member"
	if user != nil {
		name = user.Name
		m.notifier.Unsubscribe(ctx, user.DeviceToken, project.Topic())
	}

	text := name + " has left the project"
	if reason == LeaveRemoved {
		text = name + " has been removed from the project"
	}
	if err := m.messenger.PostSystemMessage(ctx, project.ID, text); err != nil {
		metrics.CascadeFailuresTotal.WithLabelValues("system_message").Inc()
		log.Warn("leave message not posted", "project_id", project.ID, "error", err)
	}

	if reason != LeaveRemoved || !notifyUser || user == nil {
		return
	}
	err := m.notifier.notify(ctx, user, Notification{
		Title:       "Removed from project",
		Description: "You have been removed from " + project.Name,
	})
	if err != nil {
		metrics.CascadeFailuresTotal.WithLabelValues("notify").Inc()
		log.Warn("removal notification failed", "project_id", project.ID, "user_id", user.ID, "error", err)
	}
}

// DeleteProject removes the project and everything it owns. Only the owner
// may delete a project.
func (m *Membership) DeleteProject(ctx context.Context, callerID, projectID uuid.UUID) error {
	var members []*model.User
	var topic string

	err := m.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Projects().GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if p.OwnerID != callerID {
			return ErrUnauthorized
		}
		topic = p.Topic()

		// Users whose list names the project without a matching member
		// entry are cleaned up too.
		referencing, err := tx.Users().ListByProject(ctx, projectID)
		if err != nil {
			return err
		}
		ids := slices.Clone(p.Members)
		for _, u := range referencing {
			ids = append(ids, u.ID)
		}
		slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
		ids = slices.Compact(ids)

		for _, id := range ids {
			u, err := tx.Users().GetForUpdate(ctx, id)
			if errors.Is(err, repository.ErrUserNotFound) {
				m.log.WithContext(ctx).Warn("member missing during project delete", "project_id", projectID, "user_id", id)
				continue
			}
			if err != nil {
				return err
			}
			if u.RemoveProject(projectID) {
				if err := tx.Users().SetProjects(ctx, u.ID, u.Projects); err != nil {
					return err
				}
			}
			members = append(members, u)
		}

		return tx.Projects().Delete(ctx, projectID)
	})
	if err != nil {
		return wrapNotFound(err)
	}

	for _, u := range members {
		m.notifier.Unsubscribe(ctx, u.DeviceToken, topic)
	}
	metrics.MembershipOpsTotal.WithLabelValues("delete_project").Inc()
	m.log.WithContext(ctx).Audit("project deleted", "project_id", projectID, "user_id", callerID, "members", len(members))
	return nil
}

// DeleteUser removes an account. Owned projects are deleted, other
// memberships are ended as removals. A failure in one project does not stop
// the others; only the account deletion itself can fail the call.
func (m *Membership) DeleteUser(ctx context.Context, callerID, userID uuid.UUID) error {
	if callerID != userID {
		return ErrUnauthorized
	}

	user, err := m.store.Users().GetByID(ctx, userID)
	if err != nil {
		return wrapNotFound(err)
	}

	var errs error
	failed := make(map[uuid.UUID]bool)
	pending := slices.Clone(user.Projects)
	for attempt := 1; ; attempt++ {
		for _, projectID := range pending {
			if err := m.detach(ctx, projectID, userID); err != nil {
				failed[projectID] = true
				errs = multierr.Append(errs, fmt.Errorf("project %s: %w", projectID, err))
				metrics.CascadeFailuresTotal.WithLabelValues("delete_user").Inc()
			}
		}

		// The row lock keeps joins out between the final check and the delete.
		pending = pending[:0]
		err = m.store.WithinTx(ctx, func(tx repository.Store) error {
			u, err := tx.Users().GetForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			for _, projectID := range u.Projects {
				if !failed[projectID] {
					pending = append(pending, projectID)
				}
			}
			if len(pending) > 0 {
				return errMembershipChanged
			}

			if err := tx.Users().Delete(ctx, userID); err != nil {
				return err
			}
			if err := tx.Identities().Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrIdentityNotFound) {
				return err
			}
			return nil
		})
		if !errors.Is(err, errMembershipChanged) {
			break
		}
		if attempt == maxDeleteUserAttempts {
			return fmt.Errorf("delete user %s: %w", userID, err)
		}
	}
	if errs != nil {
		m.log.WithContext(ctx).Error("account cascade incomplete", "user_id", userID, "failures", len(multierr.Errors(errs)), "error", errs)
	}
	if err != nil {
		return wrapNotFound(err)
	}

	metrics.MembershipOpsTotal.WithLabelValues("delete_user").Inc()
	m.log.WithContext(ctx).Audit("user deleted", "user_id", userID)
	return nil
}

func (m *Membership) detach(ctx context.Context, projectID, userID uuid.UUID) error {
	project, err := m.store.Projects().GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return m.dropStaleProject(ctx, projectID, userID)
	}
	if err != nil {
		return err
	}
	if project.OwnerID == userID {
		return m.DeleteProject(ctx, userID, projectID)
	}
	return m.leave(ctx, projectID, userID, LeaveRemoved, false)
}

// dropStaleProject removes a reference to a project that no longer exists.
func (m *Membership) dropStaleProject(ctx context.Context, projectID, userID uuid.UUID) error {
	return m.store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if !u.RemoveProject(projectID) {
			return nil
		}
		return tx.Users().SetProjects(ctx, u.ID, u.Projects)
	})
}
