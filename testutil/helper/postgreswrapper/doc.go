// Package postgreswrapper opens a postgresengine.Store on the adapter selected by ADAPTER_TYPE for integration tests.
package postgreswrapper
