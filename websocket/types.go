package websocket

// JobAll is the pseudo job ID clients subscribe with to receive
// progress for every mashup job.
const JobAll = "all"
