// Package session keeps uploaded datasets in memory, one per browser session.
//
// Sessions expire after a period of inactivity and the least recently used
// session is evicted when the store is full. A cron job sweeps expired
// sessions in the background.
package session
