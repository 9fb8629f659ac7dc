package internal

import (
	"context"
	"errors"
	"fmt"
	"log"

	"evstation/internal/config"
	"evstation/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLog      = "sys_log"
	collectionProfiles = "charging_profiles"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	err := connection.Disconnect(m.ctx)
	if err != nil {
		log.Println("mongodb disconnect error;", err)
	}
}

func (m *MongoDB) WriteLogMessage(data Data) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)
	collection := connection.Database(m.database).Collection(collectionLog)
	_, err = collection.InsertOne(m.ctx, data)
	if err != nil {
		return err
	}
	return nil
}

func (m *MongoDB) ReadLog() (interface{}, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	var logMessages []FeatureLogMessage
	collection := connection.Database(m.database).Collection(collectionLog)
	filter := bson.D{}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(1000)
	cursor, err := collection.Find(m.ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(m.ctx, &logMessages); err != nil {
		return nil, err
	}
	return logMessages, nil
}

func (m *MongoDB) GetAll() ([]*types.ProfileRecord, error) {
	return m.GetMatching(nil)
}

func (m *MongoDB) GetForEvse(evseId int) ([]*types.ProfileRecord, error) {
	return m.GetMatching(&types.ProfileCriteria{EvseId: &evseId})
}

func (m *MongoDB) GetMatching(criteria *types.ProfileCriteria) ([]*types.ProfileRecord, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	var records []*types.ProfileRecord
	collection := connection.Database(m.database).Collection(collectionProfiles)
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := collection.Find(m.ctx, profileFilter(criteria), opts)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(m.ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *MongoDB) InsertOrReplace(record *types.ProfileRecord) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "profile.id", Value: record.Profile.Id}}
	collection := connection.Database(m.database).Collection(collectionProfiles)
	_, err = collection.ReplaceOne(m.ctx, filter, record, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoDB) DeleteById(profileId int) (bool, error) {
	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "profile.id", Value: profileId}}
	collection := connection.Database(m.database).Collection(collectionProfiles)
	result, err := collection.DeleteOne(m.ctx, filter)
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (m *MongoDB) DeleteByCriteria(criteria *types.ProfileCriteria) (int, error) {
	if criteria == nil {
		return 0, errors.New("refusing to delete without criteria")
	}
	connection, err := m.connect()
	if err != nil {
		return 0, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionProfiles)
	result, err := collection.DeleteMany(m.ctx, profileFilter(criteria))
	if err != nil {
		return 0, err
	}
	return int(result.DeletedCount), nil
}

func profileFilter(criteria *types.ProfileCriteria) bson.D {
	filter := bson.D{}
	if criteria == nil {
		return filter
	}
	if criteria.EvseId != nil {
		filter = append(filter, bson.E{Key: "evse_id", Value: *criteria.EvseId})
	}
	if len(criteria.ProfileIds) > 0 {
		filter = append(filter, bson.E{Key: "profile.id", Value: bson.D{{Key: "$in", Value: criteria.ProfileIds}}})
	}
	if criteria.Purpose != "" {
		filter = append(filter, bson.E{Key: "profile.charging_profile_purpose", Value: criteria.Purpose})
	}
	if criteria.StackLevel != nil {
		filter = append(filter, bson.E{Key: "profile.stack_level", Value: *criteria.StackLevel})
	}
	if len(criteria.LimitSources) > 0 {
		filter = append(filter, bson.E{Key: "charging_limit_source", Value: bson.D{{Key: "$in", Value: criteria.LimitSources}}})
	}
	return filter
}
