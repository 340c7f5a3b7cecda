// Package project implements the packaging pipeline around pck: resource
// discovery and filtering, import-sidecar remap resolution, the export
// plugin pipeline, and the driver that ties them to a pck.PackWriter or
// pck.ZipWriter.
//
// The package knows nothing about the editor UI, per-platform export
// template copying, or resource importing itself; those are represented as
// the narrow collaborator interfaces (FileSource, ResourceFS, Platform)
// the driver calls into.
package project
