// Package services implements the project and task workflows on top of the
// entity store. Every mutation runs in a single transaction; notifications
// and activity mirroring happen after commit and never undo it.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/audit"
	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/notify"
	"github.com/berai-dev/berai/internal/policy"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by every service. Only DB is required.
type Deps struct {
	DB         *gorm.DB
	Authorizer policy.Authorizer
	Audit      audit.Writer
	Mirror     audit.Sink
	Notifier   notify.Notifier
	AppURL     string
	Now        func() time.Time
}

type Services struct {
	Tasks     *TaskService
	Projects  *ProjectService
	Members   *MemberService
	Comments  *CommentService
	Queries   *QueryService
	Dashboard *DashboardService
	Users     *UserService
}

func New(d Deps) *Services {
	c := newCore(d)
	return &Services{
		Tasks:     &TaskService{c},
		Projects:  &ProjectService{c},
		Members:   &MemberService{c},
		Comments:  &CommentService{c},
		Queries:   &QueryService{c},
		Dashboard: &DashboardService{c},
		Users:     &UserService{c},
	}
}

type core struct {
	db       *gorm.DB
	authz    policy.Authorizer
	audit    audit.Writer
	mirror   audit.Sink
	notifier notify.Notifier
	appURL   string
	now      func() time.Time
}

func newCore(d Deps) *core {
	c := &core{
		db:       d.DB,
		authz:    d.Authorizer,
		audit:    d.Audit,
		mirror:   d.Mirror,
		notifier: d.Notifier,
		appURL:   d.AppURL,
		now:      d.Now,
	}

	if c.authz == nil {
		c.authz = policy.New()
	}
	if c.audit == nil {
		c.audit = audit.GormWriter{}
	}
	if c.mirror == nil {
		c.mirror = audit.NopSink{}
	}
	if c.notifier == nil {
		c.notifier = notify.LogNotifier{}
	}
	if c.now == nil {
		c.now = time.Now
	}

	return c
}

// fail logs a store failure under op and wraps it for the caller. Typed
// errors pass through untouched.
func (c *core) fail(op string, err error) error {
	if err == nil || apperr.IsKnown(err) {
		return err
	}

	logging.Logger.WithField("op", op).Errorf("Event ID: OPERATION_FAILED, Description: %s failed: %v", op, err)
	return apperr.Persistence(op, err)
}

// authorize asks the Authorizer and logs every refusal with the actor,
// action and target before returning it.
func (c *core) authorize(actorID uint, action policy.Action, target policy.Target) error {
	err := c.authz.Authorize(actorID, action, target)
	if err == nil {
		return nil
	}

	entry := logging.Logger.WithField("actor_id", actorID).WithField("action", action.String())
	if target.Project != nil {
		entry = entry.WithField("project_id", target.Project.ID)
	}
	if target.Task != nil {
		entry = entry.WithField("task_id", target.Task.ID)
	}
	entry.Warnf("Event ID: FORBIDDEN, Description: User %d may not %s: %v", actorID, action, err)

	return err
}

func (c *core) loadProject(ctx context.Context, tx *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	err := tx.WithContext(ctx).Preload("ProjectMemberships").First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Entity: "project", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *core) loadTask(ctx context.Context, tx *gorm.DB, id uint) (*models.Task, error) {
	var task models.Task
	err := tx.WithContext(ctx).Preload("Project.ProjectMemberships").Preload("AssignedUser").First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Entity: "task", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// publish mirrors a committed activity. Failures are only logged.
func (c *core) publish(ctx context.Context, activity *models.Activity) {
	if activity == nil {
		return
	}
	if err := c.mirror.Publish(ctx, *activity); err != nil {
		logging.Logger.Warnf("Event ID: ACTIVITY_MIRROR_FAILED, Description: Failed to mirror activity %d: %v", activity.ID, err)
	}
}

func mergeFields(dst map[string]string, err error) error {
	if err == nil {
		return nil
	}
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	for k, v := range ve.Fields {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return nil
}
