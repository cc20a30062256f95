package vm

// JobQueue is the microtask queue (spec §5 "the job queue is drained at
// checkpoints"): Promise reactions and async-function resumptions are
// enqueued here rather than run synchronously, so a script's own
// turn-by-turn ordering guarantees hold.
type JobQueue struct {
	jobs []func()
}

func newJobQueue() *JobQueue { return &JobQueue{} }

// Enqueue schedules job to run the next time DrainAll is called.
func (q *JobQueue) Enqueue(job func()) { q.jobs = append(q.jobs, job) }

// DrainAll runs every queued job, including ones newly enqueued by jobs
// that ran earlier in the same drain (a settled promise's reaction may
// itself resolve another promise).
func (q *JobQueue) DrainAll() {
	for len(q.jobs) > 0 {
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		job()
	}
}

// Pending reports whether any microtask is still queued.
func (q *JobQueue) Pending() bool { return len(q.jobs) > 0 }

// DrainOne runs a single queued job, if any, used by ExecuteAsync's
// cooperative budget to bound how much microtask work runs per call
// instead of draining unconditionally (spec §5).
func (q *JobQueue) DrainOne() {
	if len(q.jobs) == 0 {
		return
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	job()
}
