/*
Package markov builds weighted state-transition graphs from sequential data
and generates unbounded pseudo-random sequences that mimic the training
data's short-range structure.

A Model pairs a tokenization mode (words, characters, bytes, or
caller-supplied tokens of any comparable type) with a context length and a
generic state graph. Training is cumulative and incremental; generation is a
pull-based infinite walk that restarts from a random state at dead ends, so
it never runs dry. Trained models serialize to a self-describing JSON blob
and can also be kept by name in a SQLite-backed Store.

For a complete usage example, see the README.md file.
*/
package markov
