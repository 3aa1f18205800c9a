package goroutines

import (
	"sync"
)

// SingleThreadExecutor runs submitted tasks one by one, in submission order, on
// a dedicated goroutine.
type SingleThreadExecutor struct {
	tasks  chan func()
	closed sync.WaitGroup
}

func (self *SingleThreadExecutor) Init(buffer_size uint32) *SingleThreadExecutor {
	self.tasks = make(chan func(), buffer_size)
	self.closed.Add(1)
	go func() {
		defer self.closed.Done()
		for t := range self.tasks {
			t()
		}
	}()
	return self
}

func (self *SingleThreadExecutor) Submit(task func()) {
	self.tasks <- task
}

// Join blocks until every task submitted before the call has finished.
func (self *SingleThreadExecutor) Join() {
	var m sync.Mutex
	m.Lock()
	self.Submit(m.Unlock)
	m.Lock()
}

func (self *SingleThreadExecutor) JoinAndClose() {
	close(self.tasks)
	self.closed.Wait()
}
