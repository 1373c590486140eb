package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/chuoapp/chuo/core/leave"
)

type leaveRepository struct {
	db *leaveTable
}

var _ leave.Repository = (*leaveRepository)(nil)

func NewLeaveRepository(db *DB) leave.Repository {
	return &leaveRepository{db: db.leave}
}

func (repo *leaveRepository) query() []leave.Leave {
	leaves := make([]leave.Leave, 0, len(repo.db.table))
	for _, lv := range repo.db.table {
		leaves = append(leaves, *lv)
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].CreatedAt.Before(leaves[j].CreatedAt) })
	return leaves
}

func (repo *leaveRepository) CreateLeave(ctx context.Context, lv leave.Leave) (leave.Leave, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if lv.ID == "" {
		lv.ID = newID()
	}
	repo.db.table[lv.ID] = &lv
	return lv, nil
}

func (repo *leaveRepository) GetLeaveByID(ctx context.Context, id string) (leave.Leave, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lv, ok := repo.db.table[id]; ok {
		return *lv, nil
	}
	return leave.Leave{}, leave.ErrNotFound
}

func (repo *leaveRepository) FilterLeaves(ctx context.Context, filter leave.QueryFilter) ([]leave.Leave, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	leaves := make([]leave.Leave, 0)
	for _, lv := range repo.query() {
		if filter.Status != "" && lv.Status != filter.Status {
			continue
		}
		if filter.LeaveType != "" && lv.LeaveType != filter.LeaveType {
			continue
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(lv.Reason), search) &&
				!strings.Contains(strings.ToLower(lv.RequesterID), search) {
				continue
			}
		}
		leaves = append(leaves, lv)
	}
	return leaves, nil
}

func (repo *leaveRepository) QueryLeavesByRequester(ctx context.Context, requesterID string) ([]leave.Leave, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	leaves := make([]leave.Leave, 0)
	for _, lv := range repo.query() {
		if lv.RequesterID == requesterID {
			leaves = append(leaves, lv)
		}
	}
	return leaves, nil
}

func (repo *leaveRepository) UpdateLeave(ctx context.Context, lv leave.Leave) (leave.Leave, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[lv.ID]; !ok {
		return leave.Leave{}, leave.ErrNotFound
	}
	repo.db.table[lv.ID] = &lv
	return lv, nil
}
