// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package upload stores the artifacts of a session in Google Cloud Storage.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type AuthOption int

const (
	AuthNone AuthOption = iota
	AuthAppDefault
	NumAuthOptions
)

var authOptString = [NumAuthOptions]string{
	"none",
	"app-default",
}

func (a *AuthOption) String() string {
	return authOptString[*a]
}

func (a *AuthOption) Set(input string) error {
	for i := range authOptString {
		if authOptString[i] == input {
			*a = AuthOption(i)
			return nil
		}
	}
	return fmt.Errorf("unrecognized authentication option: %s", input)
}

// NewRunID returns a fresh identifier for a session's artifacts.
func NewRunID() string {
	return uuid.NewString()
}

// GCS uploads artifacts to <Bucket>/<Prefix>/<RunID>/<name>.
type GCS struct {
	Bucket string
	Prefix string
	RunID  string
	Auth   AuthOption
}

// ObjectName returns the object an artifact called name is stored as.
func (g *GCS) ObjectName(name string) string {
	return path.Join(g.Prefix, g.RunID, name)
}

func (g *GCS) client(ctx context.Context) (*storage.Client, error) {
	var opts []option.ClientOption
	switch g.Auth {
	case AuthAppDefault:
		creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentials(creds))
	case AuthNone:
		return nil, fmt.Errorf("authentication required for upload")
	default:
		return nil, fmt.Errorf("unknown authentication method")
	}
	return storage.NewClient(ctx, opts...)
}

// Put copies r to the object for name and returns its gs:// URL. It
// refuses to replace an existing object.
func (g *GCS) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if g.Bucket == "" {
		return "", fmt.Errorf("no bucket to upload %s to", name)
	}
	if g.RunID == "" {
		g.RunID = NewRunID()
	}
	client, err := g.client(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	obj := g.ObjectName(name)
	o := client.Bucket(g.Bucket).Object(obj)
	if _, err := o.Attrs(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return "", fmt.Errorf("checking if object exists: %v", err)
	} else if err == nil {
		return "", fmt.Errorf("object %s already exists in %s", obj, g.Bucket)
	}

	// The precondition catches a racing writer between Attrs and Close.
	wc := o.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 412 {
			return "", fmt.Errorf("object %s already exists in %s", obj, g.Bucket)
		}
		return "", err
	}
	return "gs://" + g.Bucket + "/" + obj, nil
}
