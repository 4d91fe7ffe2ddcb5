// Copyright © 2023 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
)

// Watcher keeps a Table current against an ABI folder, re-parsing and
// re-merging it into the table whenever fsnotify observes a file change -
// the `update-catalog --watch` mode, grounded on a filesystem-watched key
// store's folder-listener loop.
type Watcher struct {
	dir       string
	catalog   string
	table     *Table
	mu        sync.RWMutex
	watcher   *fsnotify.Watcher
	doneCh    chan struct{}
	onUpdated func(*Table)
}

// NewWatcher builds a Watcher over dir, performing one synchronous
// ParseFolder/Merge before starting the background listener so Table is
// immediately usable.
func NewWatcher(ctx context.Context, dir, catalogPath string, readMode ReadMode, uniqueKey []UniqueKeyField, onUpdated func(*Table)) (*Watcher, error) {
	t := NewTable(readMode, uniqueKey)
	items, err := t.ParseFolder(ctx, dir)
	if err != nil {
		return nil, err
	}
	t.Merge(items)

	w := &Watcher{
		dir:       dir,
		catalog:   catalogPath,
		table:     t,
		doneCh:    make(chan struct{}),
		onUpdated: onUpdated,
	}
	return w, nil
}

// Table returns a point-in-time snapshot pointer to the current catalog.
// Callers must not mutate it; a later refresh replaces the Watcher's
// internal pointer rather than mutating the returned one in place.
func (w *Watcher) Table() *Table {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.table
}

// Start begins watching w.dir for filesystem events, re-parsing and
// remerging the folder into the catalog on every event. It returns once the
// watcher goroutine has been launched; call Stop to shut it down.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgCatalogFileUnreadable, w.dir, err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return i18n.NewError(ctx, decodermsgs.MsgCatalogFileUnreadable, w.dir, err)
	}
	w.watcher = watcher
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			log.L(ctx).Infof("Catalog watcher exiting for '%s'", w.dir)
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			log.L(ctx).Debugf("Catalog FS event [%s]: %s", event.Op, event.Name)
			w.refresh(ctx)
		case err, ok := <-w.watcher.Errors:
			if ok {
				log.L(ctx).Errorf("Catalog watcher error: %s", err)
			}
		}
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	w.mu.RLock()
	readMode, uniqueKey := w.table.ReadMode, w.table.UniqueKey
	w.mu.RUnlock()

	fresh := NewTable(readMode, uniqueKey)
	items, err := fresh.ParseFolder(ctx, w.dir)
	if err != nil {
		log.L(ctx).Errorf("Failed to refresh catalog from '%s': %s", w.dir, err)
		return
	}
	fresh.Merge(items)

	w.mu.Lock()
	w.table = fresh
	w.mu.Unlock()

	if w.onUpdated != nil {
		w.onUpdated(fresh)
	}
}

// Stop closes the underlying fsnotify watcher and waits for the listener
// goroutine to exit.
func (w *Watcher) Stop() {
	if w.watcher != nil {
		_ = w.watcher.Close()
		<-w.doneCh
	}
}
