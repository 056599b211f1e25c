package controller

import (
	"github.com/dreyvitch/cadence/queue"
)

// queueLoop owns the play queue and the played-history stack.
func queueLoop(q *queue.Queue[QueueSong], mail *mailbox[queueRequest]) {
	for {
		req, ok := mail.recv()
		if !ok {
			return
		}

		switch cmd := req.cmd.(type) {
		case CmdQueueAppend:
			q.Add(cmd.Song, cmd.ByHuman)
			req.res <- RespQueueEmpty{}

		case CmdQueueNext:
			item, err := q.Next()
			req.res <- RespQueueItem{Item: item, Err: err}

		case CmdQueuePrev:
			item, err := q.Prev()
			req.res <- RespQueueItem{Item: item, Err: err}

		case CmdQueueGetIndex:
			item, err := q.Index(cmd.Index)
			req.res <- RespQueueItem{Item: item, Err: err}

		case CmdQueueNowPlaying:
			item, err := q.Current()
			req.res <- RespQueueItem{Item: item, Err: err}

		case CmdQueueGet:
			req.res <- RespQueueAll{Items: q.Items()}

		case CmdQueueClear:
			q.Clear()
			req.res <- RespQueueEmpty{}

		case CmdQueueRemove:
			item, err := q.Remove(cmd.Index)
			req.res <- RespQueueItem{Item: item, Err: err}

		default:
			req.res <- RespQueueEmpty{Err: ErrContract}
		}
	}
}
