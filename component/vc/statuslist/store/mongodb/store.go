/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package mongodb implements the status list store on MongoDB. One document
// per (issuer BPN, purpose) pair, updated through a version filter so
// concurrent writers cannot overwrite each other's bits.
package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
)

const (
	defaultDatabaseName   = "ssitrust"
	defaultCollectionName = "status_lists"
)

// document is the stored shape of a status list record. The _id is the
// issuer/purpose pair so uniqueness comes from the collection itself.
type document struct {
	ID          string `bson:"_id"`
	Issuer      string `bson:"issuer"`
	Purpose     string `bson:"purpose"`
	Capacity    int    `bson:"capacity"`
	Cursor      int    `bson:"cursor"`
	EncodedList string `bson:"encodedList"`
	Version     int64  `bson:"version"`
}

// Store is a MongoDB implementation of api.Store.
type Store struct {
	client     *mongo.Client
	database   string
	collection string
}

// Option configures the mongodb store.
type Option func(*Store)

// WithDatabaseName overrides the database name.
func WithDatabaseName(name string) Option {
	return func(s *Store) {
		s.database = name
	}
}

// WithCollectionName overrides the collection name.
func WithCollectionName(name string) Option {
	return func(s *Store) {
		s.collection = name
	}
}

// NewStore connects to MongoDB at the given URI.
func NewStore(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	if uri == "" {
		return nil, errors.New("URI is mandatory")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "failed to ping mongodb")
	}

	store := &Store{
		client:     client,
		database:   defaultDatabaseName,
		collection: defaultCollectionName,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// Get returns the record for the (issuer, purpose) pair.
func (s *Store) Get(ctx context.Context, issuer identity.BPN, purpose api.Purpose) (*api.Record, error) {
	var doc document

	err := s.coll().FindOne(ctx, bson.M{"_id": documentID(issuer, purpose)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, api.ErrNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to load status list document")
	}

	return &api.Record{
		Issuer:      identity.BPN(doc.Issuer),
		Purpose:     api.Purpose(doc.Purpose),
		Capacity:    doc.Capacity,
		Cursor:      doc.Cursor,
		EncodedList: doc.EncodedList,
		Version:     doc.Version,
	}, nil
}

// Create inserts a new record at version 1.
func (s *Store) Create(ctx context.Context, record *api.Record) error {
	_, err := s.coll().InsertOne(ctx, document{
		ID:          documentID(record.Issuer, record.Purpose),
		Issuer:      record.Issuer.String(),
		Purpose:     string(record.Purpose),
		Capacity:    record.Capacity,
		Cursor:      record.Cursor,
		EncodedList: record.EncodedList,
		Version:     1,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return api.ErrDuplicate
		}

		return errors.Wrap(err, "failed to insert status list document")
	}

	record.Version = 1

	return nil
}

// Update writes the record back, filtered on the version it was read at, and
// bumps the version inside the same atomic update.
func (s *Store) Update(ctx context.Context, record *api.Record) error {
	result, err := s.coll().UpdateOne(ctx,
		bson.M{"_id": documentID(record.Issuer, record.Purpose), "version": record.Version},
		bson.M{
			"$set": bson.M{
				"capacity":    record.Capacity,
				"cursor":      record.Cursor,
				"encodedList": record.EncodedList,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return errors.Wrap(err, "failed to update status list document")
	}

	if result.MatchedCount == 0 {
		count, err := s.coll().CountDocuments(ctx, bson.M{"_id": documentID(record.Issuer, record.Purpose)})
		if err != nil {
			return errors.Wrap(err, "failed to check status list document existence")
		}

		if count == 0 {
			return api.ErrNotFound
		}

		return api.ErrVersionConflict
	}

	record.Version++

	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return errors.Wrap(s.client.Disconnect(ctx), "failed to disconnect from mongodb")
}

func (s *Store) coll() *mongo.Collection {
	return s.client.Database(s.database).Collection(s.collection)
}

func documentID(issuer identity.BPN, purpose api.Purpose) string {
	return issuer.String() + "/" + string(purpose)
}
