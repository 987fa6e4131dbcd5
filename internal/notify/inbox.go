package notify

import (
	"context"
	"fmt"

	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
	"github.com/gocql/gocql"
)

const inboxKeyspace = "berai_notifications"

// InboxNotifier keeps a per-user notification inbox in Cassandra.
type InboxNotifier struct {
	session *gocql.Session
}

// NewInboxNotifier connects to hosts, creating the keyspace and table when
// they are missing.
func NewInboxNotifier(hosts []string) (*InboxNotifier, error) {
	if len(hosts) == 0 {
		hosts = []string{"127.0.0.1"}
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect cassandra: %w", err)
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS ` + inboxKeyspace + `
		 WITH replication = {
			 'class': 'SimpleStrategy',
			 'replication_factor': 1
		 }`).Exec()
	session.Close()
	if err != nil {
		return nil, fmt.Errorf("create keyspace: %w", err)
	}

	cluster.Keyspace = inboxKeyspace
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect %s keyspace: %w", inboxKeyspace, err)
	}

	n := &InboxNotifier{session: session}
	if err := n.createTable(); err != nil {
		session.Close()
		return nil, err
	}

	logging.Logger.Infof("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra keyspace %s", inboxKeyspace)
	return n, nil
}

func (n *InboxNotifier) createTable() error {
	err := n.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications (
			id TIMEUUID,
			user_id BIGINT,
			task_id BIGINT,
			project_id BIGINT,
			message TEXT,
			created_at TIMESTAMP,
			is_read BOOLEAN,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		return fmt.Errorf("create notifications table: %w", err)
	}
	return nil
}

func (n *InboxNotifier) TaskAssigned(ctx context.Context, a Assignment) error {
	id := gocql.TimeUUID()

	err := n.session.Query(
		`INSERT INTO notifications (id, user_id, task_id, project_id, message, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, int64(a.AssigneeID), int64(a.TaskID), int64(a.ProjectID), a.Message(), id.Time(), false,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}

	return nil
}

// ListForUser returns the user's notifications, newest first.
func (n *InboxNotifier) ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	iter := n.session.Query(
		`SELECT id, user_id, task_id, project_id, message, created_at, is_read
		 FROM notifications WHERE user_id = ? LIMIT ?`,
		int64(userID), limit,
	).WithContext(ctx).Iter()

	var (
		out                    []models.Notification
		id                     gocql.UUID
		uid, taskID, projectID int64
		item                   models.Notification
	)
	for iter.Scan(&id, &uid, &taskID, &projectID, &item.Message, &item.CreatedAt, &item.IsRead) {
		item.ID = id.String()
		item.UserID = uint(uid)
		item.TaskID = uint(taskID)
		item.ProjectID = uint(projectID)
		out = append(out, item)
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return out, nil
}

func (n *InboxNotifier) Close() {
	n.session.Close()
	logging.Logger.Info("Event ID: CASSANDRA_CLOSED, Description: Cassandra session closed")
}

func (n *InboxNotifier) Ping(ctx context.Context) error {
	return n.session.Query(`SELECT now() FROM system.local`).WithContext(ctx).Exec()
}
