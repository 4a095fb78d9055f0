package calculator

import (
	"sync"
	"time"
)

// 按转矩行分配任务，每个 worker 只写自己负责的行，行与行之间没有依赖
type executor struct {
	workers int
}

type task struct {
	start int
	end   int
}

func newExecutor(workers int) *executor {
	if workers < 1 {
		workers = 1
	}
	return &executor{workers: workers}
}

// dispatchTask 把 [0, rows) 切分后分给 worker，全部完成后返回耗时
func (e *executor) dispatchTask(rows int, f func(t task)) time.Duration {
	start := time.Now()
	tasks := splitTasks(rows, e.workers)
	if len(tasks) == 0 {
		return time.Since(start)
	}

	dispatchChan := make(chan task, len(tasks))
	for _, t := range tasks {
		dispatchChan <- t
	}
	close(dispatchChan)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range dispatchChan {
				f(t)
			}
		}()
	}
	wg.Wait()
	return time.Since(start)
}

// splitTasks 每个 worker 分两半，余数逐行分配
func splitTasks(total, workers int) []task {
	if total <= 0 {
		return nil
	}
	taskLen, remainder := total/workers, total%workers
	tasks := make([]task, 0, workers*2+remainder)

	start := 0
	if taskLen == 1 {
		for start < total-remainder {
			tasks = append(tasks, task{start: start, end: start + 1})
			start++
		}
	} else if taskLen > 1 {
		half1, half2 := taskLen/2, taskLen-taskLen/2
		for start < total-remainder {
			tasks = append(tasks, task{start: start, end: start + half1})
			start += half1
			tasks = append(tasks, task{start: start, end: start + half2})
			start += half2
		}
	}

	for i := 0; i < remainder; i++ {
		tasks = append(tasks, task{start: start, end: start + 1})
		start++
	}
	return tasks
}
