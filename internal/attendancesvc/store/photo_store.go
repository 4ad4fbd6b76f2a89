package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	log "github.com/sirupsen/logrus"
)

// ErrPhotoNotFound is returned when no reference photo is stored for
// the tag UID.
var ErrPhotoNotFound = errors.New("photo not found")

// PhotoStore keeps one reference photo per employee in a GridFS bucket,
// keyed by tag UID.
type PhotoStore struct {
	bucket *gridfs.Bucket
}

func NewPhotoStore(db *mongo.Database) (*PhotoStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("employee_photos"))
	if err != nil {
		return nil, fmt.Errorf("could not open photo bucket: %w", err)
	}
	return &PhotoStore{bucket: bucket}, nil
}

// Put stores the photo under the tag UID, replacing any previous one.
func (s *PhotoStore) Put(ctx context.Context, rfidUID string, data []byte) error {
	s.deleteExisting(ctx, rfidUID)

	if deadline, ok := ctx.Deadline(); ok {
		s.bucket.SetWriteDeadline(deadline)
	}

	if _, err := s.bucket.UploadFromStream(rfidUID, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("could not upload photo for %s: %w", rfidUID, err)
	}

	return nil
}

func (s *PhotoStore) Get(ctx context.Context, rfidUID string) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		s.bucket.SetReadDeadline(deadline)
	}

	var buf bytes.Buffer
	if _, err := s.bucket.DownloadToStreamByName(rfidUID, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("could not download photo for %s: %w", rfidUID, err)
	}

	return buf.Bytes(), nil
}

func (s *PhotoStore) deleteExisting(ctx context.Context, rfidUID string) {
	cursor, err := s.bucket.Find(bson.M{"filename": rfidUID})
	if err != nil {
		log.Warnf("unable to look up previous photo for %s: %v", rfidUID, err)
		return
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var file struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&file); err != nil {
			continue
		}
		if err := s.bucket.Delete(file.ID); err != nil {
			log.Warnf("unable to delete previous photo for %s: %v", rfidUID, err)
		}
	}
}
