// Package config loads job settings files for copify.
//
//	            +-------------+
//	            |    File     |
//	            | (job kind + |
//	            |  settings)  |
//	            +------+------+
//	                   |
//	      +------------+------------+
//	      |            |            |
//	+-----+----+ +-----+----+ +-----+----+
//	|   YAML   | |   HCL    | |   JSON   |
//	|  Parser  | |  Parser  | |  Parser  |
//	+----------+ +----------+ +----------+
//
// 🎯 Purpose:
// - Picks a parser by file extension
// - Rejects unknown fields
// - Validates the selected job's settings the way the form layer does
//
// 🔍 Example:
//
//	file, err := config.Load(ctx, "copify.yaml")
//	if err != nil {
//		return err
//	}
//	kind, _ := file.JobKind()
//
// A YAML file:
//
//	kind: mover
//	mover:
//	  folder: /Users/me/Music/Sets
//	  target: /Volumes/Archive/Sets
//	  move_project_files: true
//	  exclude_files: ["**/old/**"]
//
// The same file in HCL, where ${home} expands to the user's home directory:
//
//	kind = "mover"
//	mover {
//	  folder             = "${home}/Music/Sets"
//	  target             = "/Volumes/Archive/Sets"
//	  move_project_files = true
//	  exclude_files      = ["**/old/**"]
//	}
package config
