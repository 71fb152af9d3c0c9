// Package workspace manages ephemeral working directories, such as the staging
// repository used by deploy. Each Create yields a unique directory
// (pagesmith-deploy-123456) that Cleanup removes completely.
package workspace
