// Package router is the ordered dispatch table behind every HTTP request.
// Routes are (method, matcher, handler) entries evaluated strictly in
// registration order; the first entry whose method and matcher accept the
// request wins and no later entry runs, so earlier routes shadow later ones
// with overlapping patterns. Pattern captures reach handlers as a positional
// []string.
package router
