/*
Package status renders a coordinator's run state in the terminal.

	+-------------+      snapshot      +-----------+
	| Coordinator | -----------------> | Renderer  |
	|  (state)    |   per mutation     | (pterm)   |
	+-------------+                    +-----+-----+
	                                         |
	                          +--------------+-------------+
	                          |              |             |
	                      header      progress bar     log card

🎯 Purpose:
- Show "<Job> in progress" while a run is active and "<Job> finished" once
  the last notification reports completion
- Track percent on a progress bar titled with the current file's base name
- Print one log card line per notification (status icon, base name, message)
- Alert when the run could not be started at all

🔄 Flow:
1. The renderer is registered as a coordinator observer
2. Each snapshot is diffed against what was already drawn
3. Only new history entries are printed, so the log is never repeated
4. A new run id resets the view, an empty one (Restart) clears it

The renderer never mutates the coordinator and holds no reference to it.
*/
package status
