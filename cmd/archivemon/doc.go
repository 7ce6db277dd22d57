// Command archivemon watches a directory for new PSRCHIVE archives and keeps
// running time and frequency sums of everything that arrives.
//
//	archivemon -i /data/incoming -o /data/live
//
// Subcommands report tool availability (deps), show the processing journal
// (history) and write a sample configuration (config init).
package main
