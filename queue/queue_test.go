package queue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func fill(q *Queue[int], n int) {
	for i := 0; i < n; i++ {
		q.Add(i, false)
	}
}

func TestNextPopsOntoPlayed(t *testing.T) {
	q := New[int](50)
	fill(q, 3)

	item, err := q.Next()
	require.NoError(t, err)
	require.Equal(t, 1, item.Item)
	require.Equal(t, 2, q.Len())
	require.Equal(t, 1, q.PlayedLen())
}

func TestNextOnEmptyDoesNotMutate(t *testing.T) {
	q := New[int](50)

	_, err := q.Next()
	require.True(t, IsNoNext(err))
	require.Equal(t, 0, q.Len())
	require.Equal(t, 0, q.PlayedLen())
}

func TestNextOnLastItemEmptiesQueue(t *testing.T) {
	q := New[int](50)
	q.Add(7, false)

	_, err := q.Next()
	require.True(t, IsNoNext(err))
	require.Equal(t, 0, q.Len())
	require.Equal(t, 1, q.PlayedLen())
}

func TestNextAfterPrevReturnsSameItem(t *testing.T) {
	q := New[int](50)
	fill(q, 5)

	next, err := q.Next()
	require.NoError(t, err)

	// the item next advanced to is the front; prev puts the popped one
	// back in front of it
	prev, err := q.Prev()
	require.NoError(t, err)
	require.Equal(t, 0, prev.Item)
	require.Equal(t, 5, q.Len())

	got, err := q.Next()
	require.NoError(t, err)
	require.Equal(t, next.Item, got.Item)
}

func TestPrevOnEmptyPlayed(t *testing.T) {
	q := New[int](50)
	fill(q, 2)

	_, err := q.Prev()
	require.True(t, IsEmptyPlayed(err))
}

func TestConservation(t *testing.T) {
	// len(items) + len(played) stays (appends - removes) through any
	// next/prev sequence
	q := New[int](50)
	fill(q, 10)

	for i := 0; i < 6; i++ {
		q.Next()
	}
	q.Prev()
	q.Prev()
	_, err := q.Remove(0)
	require.NoError(t, err)

	require.Equal(t, 9, q.Len()+q.PlayedLen())
}

func TestPlayedCap(t *testing.T) {
	q := New[int](50)
	fill(q, 120)

	for i := 0; i < 120; i++ {
		q.Next()
	}
	require.LessOrEqual(t, q.PlayedLen(), 50)
	require.Equal(t, 50, q.PlayedLen())
}

func TestPlayedCapDiscardsOldest(t *testing.T) {
	q := New[int](2)
	fill(q, 4)

	q.Next()
	q.Next()
	q.Next()

	// played is [1, 2]; prev yields 2 then 1, 0 was discarded
	p, err := q.Prev()
	require.NoError(t, err)
	require.Equal(t, 2, p.Item)
	p, err = q.Prev()
	require.NoError(t, err)
	require.Equal(t, 1, p.Item)
	_, err = q.Prev()
	require.True(t, IsEmptyPlayed(err))
}

func TestRemoveOutOfBounds(t *testing.T) {
	q := New[int](50)
	fill(q, 3)

	_, err := q.Remove(3)
	var oob OutOfBoundsError
	require.True(t, errors.As(err, &oob))
	require.Equal(t, 3, oob.Index)
	require.Equal(t, 3, oob.Len)
}

func TestIndexOutOfBounds(t *testing.T) {
	q := New[int](50)

	_, err := q.Index(0)
	var oob OutOfBoundsError
	require.True(t, errors.As(err, &oob))
	require.Equal(t, 0, oob.Len)
}

func TestHumanInsertLandsAfterAddHere(t *testing.T) {
	q := New[int](50)
	q.Add(0, true) // the now playing item, carries the marker
	for i := 1; i < 5; i++ {
		q.Add(i, false) // auto refill
	}

	q.Add(99, true)

	items := q.Items()
	require.Equal(t, 0, items[0].Item)
	require.Equal(t, 99, items[1].Item)
	require.Equal(t, 1, items[2].Item)
	require.True(t, items[1].ByHuman)
	require.Equal(t, StateAddHere, items[1].State)
}

func TestSecondHumanInsertFollowsFirst(t *testing.T) {
	q := New[int](50)
	q.Add(0, true)
	fill(q, 3)

	q.Add(97, true)
	q.Add(98, true)

	items := q.Items()
	got := make([]int, 0, len(items))
	for _, it := range items {
		got = append(got, it.Item)
	}
	require.Equal(t, []int{0, 97, 98, 0, 1, 2}, got)
}

func TestHumanInsertWithoutMarkerGoesAfterCurrent(t *testing.T) {
	q := New[int](50)
	fill(q, 3) // no marker anywhere

	q.Add(99, true)

	items := q.Items()
	require.Equal(t, 0, items[0].Item)
	require.Equal(t, 99, items[1].Item)
	require.Equal(t, StateAddHere, items[1].State)
}

func TestAutoAppendGoesToTail(t *testing.T) {
	q := New[int](50)
	q.Add(0, true)
	q.Add(50, true)
	q.Add(1, false)

	items := q.Items()
	require.Equal(t, 1, items[len(items)-1].Item)
}

func TestClearPreservesPlayed(t *testing.T) {
	q := New[int](50)
	fill(q, 5)
	q.Next()
	q.Clear()

	require.Equal(t, 0, q.Len())
	require.Equal(t, 1, q.PlayedLen())
}

func TestRemoveMovesAddHere(t *testing.T) {
	q := New[int](50)
	q.Add(0, true)
	q.Add(1, false)
	q.Add(2, false)

	_, err := q.Remove(0)
	require.NoError(t, err)

	items := q.Items()
	require.Equal(t, StateAddHere, items[0].State)
}

func TestCurrentOnEmpty(t *testing.T) {
	q := New[int](50)
	_, err := q.Current()
	require.ErrorIs(t, err, ErrEmptyQueue)
}
