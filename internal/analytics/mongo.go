// Package analytics mirrors committed task activity into MongoDB for
// reporting.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ActivityType string

const (
	ActivityCreateTask         ActivityType = "CreateTask"
	ActivityChangeTaskStatus   ActivityType = "ChangeTaskStatus"
	ActivityChangeTaskPriority ActivityType = "ChangeTaskPriority"
	ActivityUpdateTask         ActivityType = "UpdateTask"
)

type ProjectActivity struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ActivityID   uint               `json:"activityId" bson:"activityId"`
	ProjectID    uint               `json:"projectId" bson:"projectId"`
	ActivityType ActivityType       `json:"activityType" bson:"activityType"`
	TaskID       uint               `json:"taskId" bson:"taskId"`
	MemberID     uint               `json:"memberId" bson:"memberId"`
	Timestamp    time.Time          `json:"timestamp" bson:"timestamp"`
	Details      string             `json:"details" bson:"details"`
	Attributes   map[string]int     `json:"attributes,omitempty" bson:"attributes,omitempty"`
	Old          map[string]int     `json:"old,omitempty" bson:"old,omitempty"`
}

// FromActivity converts a stored activity into its reporting document.
func FromActivity(a models.Activity) ProjectActivity {
	var props struct {
		Attributes map[string]int `json:"attributes"`
		Old        map[string]int `json:"old"`
	}
	if len(a.Properties) > 0 {
		if err := json.Unmarshal(a.Properties, &props); err != nil {
			logging.Logger.Warnf("Event ID: ACTIVITY_PROPERTIES_INVALID, Description: Activity %d has unreadable properties: %v", a.ID, err)
		}
	}

	return ProjectActivity{
		ActivityID:   a.ID,
		ProjectID:    a.ProjectID,
		ActivityType: activityType(a.Event, props.Attributes),
		TaskID:       a.SubjectID,
		MemberID:     a.CauserID,
		Timestamp:    a.CreatedAt.UTC(),
		Details:      a.Description,
		Attributes:   props.Attributes,
		Old:          props.Old,
	}
}

func activityType(event string, attrs map[string]int) ActivityType {
	if event == models.ActivityEventCreated {
		return ActivityCreateTask
	}

	_, status := attrs["status"]
	_, priority := attrs["priority"]
	switch {
	case status && !priority:
		return ActivityChangeTaskStatus
	case priority && !status:
		return ActivityChangeTaskPriority
	}
	return ActivityUpdateTask
}

// MongoActivitySink stores ProjectActivity documents.
type MongoActivitySink struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoActivitySink(ctx context.Context, uri, dbName string) (*MongoActivitySink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	collection := client.Database(dbName).Collection("project_activities")

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: MONGO_INDEX_FAILED, Description: Failed to create project_activities index: %v", err)
	}

	logging.Logger.Infof("Event ID: MONGO_CONNECTED, Description: Mirroring activity to %s.project_activities", dbName)

	return &MongoActivitySink{client: client, collection: collection, timeout: 5 * time.Second}, nil
}

func (s *MongoActivitySink) Publish(ctx context.Context, a models.Activity) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, FromActivity(a)); err != nil {
		return fmt.Errorf("insert project activity: %w", err)
	}
	return nil
}

// ForProject returns the latest mirrored documents of a project.
func (s *MongoActivitySink) ForProject(ctx context.Context, projectID uint, limit int64) ([]ProjectActivity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := s.collection.Find(ctx, bson.M{"projectId": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []ProjectActivity
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoActivitySink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoActivitySink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
