/*
Package snapshot acquires the cluster status that resource-status queries.

A Source returns one immutable types.Snapshot. Two sources exist:

	CrmMonSource   runs crm_mon --one-shot --inactive --output-as=xml on the
	               local node, bounded by a timeout
	FileSource     reads a cached document: crm_mon XML, or the YAML status
	               format used for hand-written and mocked snapshots

Parse picks the format by content: documents starting with '<' are crm_mon
XML, anything else is YAML.

# crm_mon XML

Resource ids carrying an instance suffix ("dummy:1") are split on the
rightmost colon. Legacy roles Master and Slave become Promoted and
Unpromoted. Resources inside a bundle replica are classified by agent:

	ocf:heartbeat:IPaddr2 (id <bundle>-ip-*)   replica IP address
	ocf:heartbeat:<bundle type>                container
	ocf:pacemaker:remote                       remote connection
	anything else                              the bundled member

Both parsers finish with Snapshot.Validate, so the query engine never sees a
mixed clone or a replica without container.
*/
package snapshot
