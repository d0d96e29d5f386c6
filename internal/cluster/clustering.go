// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package cluster

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrUnknownSignal is returned for a signal not in the clustering.
	ErrUnknownSignal = errors.New("cluster: unknown signal")
	// ErrUnknownCluster is returned for a cluster id not in the clustering.
	ErrUnknownCluster = errors.New("cluster: unknown cluster")
)

// Cluster is one story.
type Cluster struct {
	ID string `json:"cluster_id"`
	// Representative is the highest-scoring member's signal id.
	Representative string `json:"representative"`
	// Members are signal ids in input order.
	Members []string `json:"members"`
	// Relevance is the representative's score.
	Relevance float64 `json:"relevance"`
}

// Size returns the member count.
func (c Cluster) Size() int { return len(c.Members) }

type cluster struct {
	id      string
	members []int
	rep     int
}

// Clustering is the partition of one run's items. Membership edits keep
// it a partition: every item is in exactly one cluster.
type Clustering struct {
	mu       sync.RWMutex
	items    []Item
	index    map[string]int
	clusters map[string]*cluster
	memberOf []string
}

func newClustering(items []Item, uf *unionFind) *Clustering {
	c := &Clustering{
		items:    items,
		index:    make(map[string]int, len(items)),
		clusters: make(map[string]*cluster),
		memberOf: make([]string, len(items)),
	}

	byRoot := make(map[int]*cluster)
	for i, it := range items {
		c.index[it.Signal.ID] = i
		root := uf.find(i)
		cl, ok := byRoot[root]
		if !ok {
			cl = &cluster{id: uuid.NewString()}
			byRoot[root] = cl
			c.clusters[cl.id] = cl
		}
		cl.members = append(cl.members, i)
		c.memberOf[i] = cl.id
	}
	for _, cl := range c.clusters {
		c.elect(cl)
	}
	return c
}

// elect picks the highest-scoring member, earliest input order on ties.
func (c *Clustering) elect(cl *cluster) {
	sort.Ints(cl.members)
	cl.rep = cl.members[0]
	for _, m := range cl.members[1:] {
		if c.items[m].Score > c.items[cl.rep].Score {
			cl.rep = m
		}
	}
}

func (c *Clustering) export(cl *cluster) Cluster {
	out := Cluster{
		ID:             cl.id,
		Representative: c.items[cl.rep].Signal.ID,
		Relevance:      c.items[cl.rep].Score,
		Members:        make([]string, len(cl.members)),
	}
	for i, m := range cl.members {
		out.Members[i] = c.items[m].Signal.ID
	}
	return out
}

// Len returns the number of clusters.
func (c *Clustering) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clusters)
}

// Clusters returns every cluster, most relevant first, then by the
// representative's input order.
func (c *Clustering) Clusters() []Cluster {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ordered := make([]*cluster, 0, len(c.clusters))
	for _, cl := range c.clusters {
		ordered = append(ordered, cl)
	}
	sort.Slice(ordered, func(i, j int) bool {
		si, sj := c.items[ordered[i].rep].Score, c.items[ordered[j].rep].Score
		if si != sj {
			return si > sj
		}
		return ordered[i].rep < ordered[j].rep
	})

	out := make([]Cluster, len(ordered))
	for i, cl := range ordered {
		out[i] = c.export(cl)
	}
	return out
}

// Representatives returns the representative item of each cluster in
// Clusters order.
func (c *Clustering) Representatives() []Item {
	clusters := c.Clusters()

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Item, len(clusters))
	for i, cl := range clusters {
		out[i] = c.items[c.index[cl.Representative]]
	}
	return out
}

// ClusterOf returns the cluster holding signalID.
func (c *Clustering) ClusterOf(signalID string) (Cluster, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[signalID]
	if !ok {
		return Cluster{}, false
	}
	return c.export(c.clusters[c.memberOf[i]]), true
}

// AddMember moves signalID into clusterID. The signal leaves its previous
// cluster, which is dissolved if it becomes empty, and both clusters
// re-elect their representative.
func (c *Clustering) AddMember(clusterID, signalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[signalID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSignal, signalID)
	}
	target, ok := c.clusters[clusterID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCluster, clusterID)
	}
	if c.memberOf[i] == clusterID {
		return nil
	}

	c.detach(i)
	target.members = append(target.members, i)
	c.memberOf[i] = clusterID
	c.elect(target)
	return nil
}

// RemoveMember moves signalID out of its cluster into a new singleton
// cluster and returns the new cluster's id. Removing the only member of a
// cluster is a no-op that returns the existing id.
func (c *Clustering) RemoveMember(signalID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[signalID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSignal, signalID)
	}
	if len(c.clusters[c.memberOf[i]].members) == 1 {
		return c.memberOf[i], nil
	}

	c.detach(i)
	cl := &cluster{id: uuid.NewString(), members: []int{i}, rep: i}
	c.clusters[cl.id] = cl
	c.memberOf[i] = cl.id
	return cl.id, nil
}

// detach removes item i from its cluster. Callers must reassign it.
func (c *Clustering) detach(i int) {
	old := c.clusters[c.memberOf[i]]
	for k, m := range old.members {
		if m == i {
			old.members = append(old.members[:k], old.members[k+1:]...)
			break
		}
	}
	if len(old.members) == 0 {
		delete(c.clusters, old.id)
		return
	}
	c.elect(old)
}
