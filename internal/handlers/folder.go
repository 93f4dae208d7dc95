package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/services/explorer"
)

type CreateFolderRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	ParentID *uint64 `json:"parent_id"` // null 表示根目录
}

type RenameFolderRequest struct {
	NewName string `json:"new_name" binding:"required,max=255"`
}

// @Summary 创建文件夹
// @Tags 文件夹
// @Accept json
// @Produce json
// @Param data body CreateFolderRequest true "文件夹名称和父文件夹"
// @Success 201 {object} xerr.Response "创建成功"
// @Router /api/v1/folders [post]
func CreateFolder(folderService explorer.FolderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req CreateFolderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		folder, err := folderService.CreateFolder(userID, req.Name, req.ParentID)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusCreated, "文件夹创建成功", folder)
	}
}

// @Summary 文件夹列表
// @Tags 文件夹
// @Produce json
// @Param parent_id query string false "父文件夹ID，缺省为根目录"
// @Success 200 {object} xerr.Response "文件夹列表"
// @Router /api/v1/folders [get]
func ListFolders(folderService explorer.FolderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		parentID, ok := parseOptionalFolderID(c, "parent_id")
		if !ok {
			return
		}

		folders, err := folderService.ListFolders(userID, parentID)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "获取文件夹列表成功", folders)
	}
}

// @Summary 重命名文件夹
// @Tags 文件夹
// @Accept json
// @Produce json
// @Param folder_id path int true "文件夹ID"
// @Param data body RenameFolderRequest true "新名称"
// @Success 200 {object} xerr.Response "重命名成功"
// @Router /api/v1/folders/{folder_id}/rename [put]
func RenameFolder(folderService explorer.FolderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		folderID, ok := parsePathID(c, "folder_id")
		if !ok {
			return
		}

		var req RenameFolderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		folder, err := folderService.RenameFolder(userID, folderID, req.NewName)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "文件夹重命名成功", folder)
	}
}

// @Summary 删除文件夹
// @Description 只允许删除空文件夹
// @Tags 文件夹
// @Produce json
// @Param folder_id path int true "文件夹ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 400 {object} xerr.Response "文件夹不为空"
// @Router /api/v1/folders/{folder_id} [delete]
func DeleteFolder(folderService explorer.FolderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		folderID, ok := parsePathID(c, "folder_id")
		if !ok {
			return
		}

		if err := folderService.DeleteFolder(userID, folderID); err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "文件夹删除成功", nil)
	}
}
