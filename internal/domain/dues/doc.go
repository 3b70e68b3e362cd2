// Package dues contains the dues and payments domain: a Due is a pharmacy's
// obligation for a billing year, a Payment is a receipted settlement attempt
// reviewed by the association before it is allowed to credit the Due.
package dues
