package catalog

import (
	"sort"

	"github.com/samber/lo"
)

// 工具分组，与技能文档中的工具分类保持一致
const (
	GroupSQL          = "sql"
	GroupCompute      = "compute"
	GroupJobs         = "jobs"
	GroupPipelines    = "pipelines"
	GroupDashboards   = "dashboards"
	GroupAgentBricks  = "agent_bricks"
	GroupGenie        = "genie"
	GroupUnityCatalog = "unity_catalog"
	GroupVolumes      = "volumes"
	GroupServing      = "serving"
	GroupWorkspace    = "workspace"
	GroupSkills       = "skills"
)

// Tool 开发套件工具的描述信息。
// 工具本体由平台托管运行时提供，这里只维护目录元数据。
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

var tools = []Tool{
	// SQL
	{Name: "execute_sql", Group: GroupSQL, Description: "Execute a SQL query and return results. Use for data exploration, creating tables, or testing queries before dashboards."},
	{Name: "execute_sql_multi", Group: GroupSQL, Description: "Execute multiple SQL statements separated by semicolons. Returns results for each statement."},
	{Name: "list_warehouses", Group: GroupSQL, Description: "List all SQL warehouses with their status. Use to find warehouse_id for queries or dashboards."},
	{Name: "get_best_warehouse", Group: GroupSQL, Description: "Get the best available running SQL warehouse ID."},
	{Name: "get_table_details", Group: GroupSQL, Description: "Get details of all tables in a schema including columns and types. Essential before writing SQL or creating dashboards."},

	// Compute
	{Name: "list_clusters", Group: GroupCompute, Description: "List all clusters in the workspace with their status."},
	{Name: "get_best_cluster", Group: GroupCompute, Description: "Get the best available running cluster for code execution. Prefers shared or demo clusters."},
	{Name: "execute_databricks_command", Group: GroupCompute, Description: "Execute Python/SQL/Scala code on a cluster. Use for complex computations that need cluster resources."},
	{Name: "run_python_file_on_databricks", Group: GroupCompute, Description: "Run a Python file from the workspace on a cluster."},

	// Jobs
	{Name: "list_jobs", Group: GroupJobs, Description: "List all jobs in the workspace."},
	{Name: "get_job", Group: GroupJobs, Description: "Get detailed information about a specific job."},
	{Name: "find_job_by_name", Group: GroupJobs, Description: "Find a job by its name and return its job_id."},
	{Name: "create_job", Group: GroupJobs, Description: "Create a Databricks job to run a notebook. Optionally add a cron schedule. Use get_skill(databricks-jobs) for advanced configurations."},
	{Name: "update_job", Group: GroupJobs, Description: "Update an existing job configuration."},
	{Name: "delete_job", Group: GroupJobs, Description: "Delete a job."},
	{Name: "run_job_now", Group: GroupJobs, Description: "Trigger a job run immediately. Optional parameters as JSON string."},
	{Name: "get_run", Group: GroupJobs, Description: "Get details about a job run."},
	{Name: "get_run_output", Group: GroupJobs, Description: "Get the output of a completed job run."},
	{Name: "cancel_run", Group: GroupJobs, Description: "Cancel a running job."},
	{Name: "list_runs", Group: GroupJobs, Description: "List job runs. Optionally filter by job_id."},
	{Name: "wait_for_run", Group: GroupJobs, Description: "Wait for a job run to complete and return the result."},

	// Pipelines
	{Name: "create_pipeline", Group: GroupPipelines, Description: "Create a Spark Declarative Pipeline (DLT/SDP). Use get_skill(spark-declarative-pipelines) for pipeline code patterns."},
	{Name: "get_pipeline", Group: GroupPipelines, Description: "Get details about a pipeline."},
	{Name: "update_pipeline", Group: GroupPipelines, Description: "Update a pipeline configuration."},
	{Name: "delete_pipeline", Group: GroupPipelines, Description: "Delete a pipeline."},
	{Name: "start_update", Group: GroupPipelines, Description: "Start a pipeline update/run."},
	{Name: "stop_pipeline", Group: GroupPipelines, Description: "Stop a running pipeline."},
	{Name: "list_pipelines", Group: GroupPipelines, Description: "List all pipelines in the workspace."},
	{Name: "find_pipeline_by_name", Group: GroupPipelines, Description: "Find a pipeline by name."},

	// Dashboards
	{Name: "create_or_update_dashboard", Group: GroupDashboards, Description: "Create or update an AI/BI dashboard. IMPORTANT: Test all SQL queries with execute_sql first! Use get_skill(aibi-dashboards) for the correct JSON format."},
	{Name: "get_dashboard", Group: GroupDashboards, Description: "Get dashboard details by ID."},
	{Name: "list_dashboards", Group: GroupDashboards, Description: "List all AI/BI dashboards."},
	{Name: "trash_dashboard", Group: GroupDashboards, Description: "Move a dashboard to trash."},
	{Name: "publish_dashboard", Group: GroupDashboards, Description: "Publish a dashboard."},
	{Name: "unpublish_dashboard", Group: GroupDashboards, Description: "Unpublish a dashboard."},

	// Agent Bricks
	{Name: "create_ka", Group: GroupAgentBricks, Description: "Create a Knowledge Assistant."},
	{Name: "get_ka", Group: GroupAgentBricks, Description: "Get Knowledge Assistant details."},
	{Name: "find_ka_by_name", Group: GroupAgentBricks, Description: "Find a Knowledge Assistant by name."},
	{Name: "delete_ka", Group: GroupAgentBricks, Description: "Delete a Knowledge Assistant."},
	{Name: "create_mas", Group: GroupAgentBricks, Description: "Create a Multi-Agent Supervisor."},
	{Name: "get_mas", Group: GroupAgentBricks, Description: "Get Multi-Agent Supervisor details."},
	{Name: "find_mas_by_name", Group: GroupAgentBricks, Description: "Find a Multi-Agent Supervisor by name."},
	{Name: "delete_mas", Group: GroupAgentBricks, Description: "Delete a Multi-Agent Supervisor."},

	// Genie
	{Name: "list_genie", Group: GroupGenie, Description: "List all Genie spaces."},
	{Name: "create_genie", Group: GroupGenie, Description: "Create a Genie space."},
	{Name: "get_genie", Group: GroupGenie, Description: "Get Genie space details."},
	{Name: "delete_genie", Group: GroupGenie, Description: "Delete a Genie space."},
	{Name: "ask_genie", Group: GroupGenie, Description: "Ask a question to a Genie space."},
	{Name: "ask_genie_followup", Group: GroupGenie, Description: "Ask a follow-up question."},

	// Unity Catalog
	{Name: "manage_uc_objects", Group: GroupUnityCatalog, Description: "Manage UC objects: list/create/delete catalogs, schemas, tables, volumes."},
	{Name: "manage_uc_grants", Group: GroupUnityCatalog, Description: "Manage UC permissions and grants."},
	{Name: "manage_uc_storage", Group: GroupUnityCatalog, Description: "Manage external storage locations and credentials."},
	{Name: "manage_uc_connections", Group: GroupUnityCatalog, Description: "Manage UC connections to external systems."},
	{Name: "manage_uc_tags", Group: GroupUnityCatalog, Description: "Manage tags on UC objects."},
	{Name: "manage_uc_security_policies", Group: GroupUnityCatalog, Description: "Manage row filters and column masks."},
	{Name: "manage_uc_monitors", Group: GroupUnityCatalog, Description: "Manage Lakehouse monitoring."},
	{Name: "manage_uc_sharing", Group: GroupUnityCatalog, Description: "Manage Delta Sharing."},

	// Volume files
	{Name: "list_volume_files", Group: GroupVolumes, Description: "List files in a UC volume."},
	{Name: "upload_to_volume", Group: GroupVolumes, Description: "Upload content to a volume."},
	{Name: "download_from_volume", Group: GroupVolumes, Description: "Download file content from a volume."},
	{Name: "delete_volume_file", Group: GroupVolumes, Description: "Delete a file from a volume."},
	{Name: "delete_volume_directory", Group: GroupVolumes, Description: "Delete a directory from a volume."},
	{Name: "create_volume_directory", Group: GroupVolumes, Description: "Create a directory in a volume."},
	{Name: "get_volume_file_info", Group: GroupVolumes, Description: "Get file metadata from a volume."},

	// Model serving
	{Name: "get_serving_endpoint_status", Group: GroupServing, Description: "Get status of a model serving endpoint."},
	{Name: "query_serving_endpoint", Group: GroupServing, Description: "Query a model serving endpoint with input data."},
	{Name: "list_serving_endpoints", Group: GroupServing, Description: "List all model serving endpoints."},

	// Workspace files
	{Name: "upload_file", Group: GroupWorkspace, Description: "Upload/create a file or notebook in the workspace."},
	{Name: "list_workspace", Group: GroupWorkspace, Description: "List contents of a workspace folder."},

	// Skills
	{Name: "list_skills", Group: GroupSkills, Description: "List all available AI Dev Kit skills for guidance on Databricks tasks."},
	{Name: "get_skill", Group: GroupSkills, Description: "Get detailed documentation for a skill. Use before implementing Databricks features to get correct patterns."},
	{Name: "get_skill_tree", Group: GroupSkills, Description: "Get the file tree structure of a skill directory."},
	{Name: "search_skills", Group: GroupSkills, Description: "Search across all skills for relevant guidance."},
}

// Tools 返回完整的工具目录
func Tools() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}

func Count() int {
	return len(tools)
}

// Names 按字典序返回全部工具名
func Names() []string {
	names := lo.Map(tools, func(t Tool, _ int) string {
		return t.Name
	})
	sort.Strings(names)
	return names
}

// Find 按名称查找工具
func Find(name string) (Tool, bool) {
	return lo.Find(tools, func(t Tool) bool {
		return t.Name == name
	})
}

// GroupBy 按分组聚合工具目录
func GroupBy() map[string][]Tool {
	return lo.GroupBy(tools, func(t Tool) string {
		return t.Group
	})
}
