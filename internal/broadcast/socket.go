package broadcast

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type outbound struct {
	messageType int
	data        []byte
}

// socket is the gorilla/websocket transport. One goroutine owns all data
// writes; send and probe only enqueue.
type socket struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	queue        chan outbound
	done         chan struct{}
	closed       chan struct{}
	broken       atomic.Bool
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func newSocket(conn *websocket.Conn, writeTimeout time.Duration, buffer int) *socket {
	s := &socket{
		conn:         conn,
		writeTimeout: writeTimeout,
		queue:        make(chan outbound, buffer),
		done:         make(chan struct{}),
		closed:       make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *socket) run() {
	defer s.wg.Done()

	for {
		select {
		case msg := <-s.queue:
			s.setWriteDeadline()
			if err := s.conn.WriteMessage(msg.messageType, msg.data); err != nil {
				// closing the conn fails the pending read, which terminates the client
				s.broken.Store(true)
				_ = s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *socket) send(frame []byte) bool {
	return s.enqueue(outbound{messageType: websocket.TextMessage, data: frame})
}

func (s *socket) probe() bool {
	return s.enqueue(outbound{messageType: websocket.PingMessage})
}

func (s *socket) enqueue(msg outbound) bool {
	if s.broken.Load() {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.queue <- msg:
		return true
	default:
		return false
	}
}

// close stops the writer, then sends a close frame and closes the conn in
// the background. wait blocks until that has happened.
func (s *socket) close(code int, reason string) {
	s.stopOnce.Do(func() {
		close(s.done)
		go func() {
			defer close(s.closed)
			s.wg.Wait()

			msg := websocket.FormatCloseMessage(code, reason)
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
			_ = s.conn.Close()
		}()
	})
}

func (s *socket) wait() {
	<-s.closed
}

// Deadlines are wall-clock values for the network stack.
func (s *socket) setWriteDeadline() {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
}
