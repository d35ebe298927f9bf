package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/jrhy/merkle"
)

type S3Interface interface {
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// Persist implements the merkle.Persist interface for storing and
// loading serialized trees as S3 objects.
type Persist struct {
	s3         S3Interface
	BucketName string
	Prefix     string
	// names known to be in the bucket already
	lru *simplelru.LRU
}

// Load loads the bytes persisted in the named object. A missing object
// is reported as merkle.ErrNotFound.
func (p Persist) Load(ctx context.Context, name string) ([]byte, error) {
	input := s3.GetObjectInput{
		Bucket: &p.BucketName,
		Key:    aws.String(p.Prefix + name),
	}
	output, err := p.s3.GetObjectWithContext(ctx, &input)
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%s: %w", name, merkle.ErrNotFound)
		}
		return nil, err
	}
	defer output.Body.Close()
	b, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, err
	}
	p.lru.Add(name, nil)
	return b, nil
}

// Store persists the given bytes in an object of the given name, unless
// it was recently stored or loaded through this Persist.
func (p Persist) Store(ctx context.Context, name string, b []byte) error {
	if _, present := p.lru.Get(name); present {
		return nil
	}
	input := s3.PutObjectInput{
		Bucket: &p.BucketName,
		Key:    aws.String(p.Prefix + name),
		Body:   bytes.NewReader(b),
	}
	_, err := p.s3.PutObjectWithContext(ctx, &input)
	if err != nil {
		return err
	}
	p.lru.Add(name, nil)
	return nil
}

// NewPersist returns a Persist that loads and stores trees as objects
// with the given S3 client, bucket name and key prefix.
func NewPersist(client S3Interface, bucketName, prefix string) Persist {
	lru, err := simplelru.NewLRU(1000, nil)
	if err != nil {
		panic(err)
	}
	return Persist{client, bucketName, prefix, lru}
}
