// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package etcdstore

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sleeperdb/sleeper/statestore"
	"github.com/sleeperdb/sleeper/statestore/storetest"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// TestStore runs against a live etcd cluster named by
// SLEEPER_ETCD_ENDPOINTS, a comma-separated list of endpoints. Each subtest
// uses its own key prefix, which is deleted afterwards.
func TestStore(t *testing.T) {
	endpoints := os.Getenv("SLEEPER_ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("SLEEPER_ETCD_ENDPOINTS not set")
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(endpoints, ","),
		DialTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer cli.Close()

	storetest.RunTests(t, func(t *testing.T) statestore.Store {
		prefix := fmt.Sprintf("/sleeper-test/%s", uuid.NewString())
		t.Cleanup(func() {
			_, err := cli.Delete(context.Background(), prefix, clientv3.WithPrefix())
			require.NoError(t, err)
		})
		return New(cli, prefix)
	})
}

func TestKeys(t *testing.T) {
	s := New(nil, "/tables/t1/")
	require.Equal(t, "/tables/t1/partitions/root", s.key("root"))
	require.NoError(t, s.Close())
}
