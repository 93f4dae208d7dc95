package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/services/explorer"
	"go.uber.org/zap"
)

type MoveFileRequest struct {
	FileID   uint64  `json:"file_id" binding:"required"`
	FolderID *uint64 `json:"folder_id"` // null 表示移动到根目录
}

type CopyFileRequest struct {
	FileID   uint64  `json:"file_id" binding:"required"`
	FolderID *uint64 `json:"folder_id"`
}

type RenameFileRequest struct {
	NewName string `json:"new_name" binding:"required,max=255"`
}

type BatchDeleteRequest struct {
	FileIDs []uint64 `json:"file_ids" binding:"required,min=1"`
}

type BatchMoveRequest struct {
	FileIDs  []uint64 `json:"file_ids" binding:"required,min=1"`
	FolderID *uint64  `json:"folder_id"`
}

// parseOptionalFolderID 解析查询参数里的文件夹ID，空值表示根目录
func parseOptionalFolderID(c *gin.Context, key string) (*uint64, bool) {
	s := c.Query(key)
	if s == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid "+key)
		return nil, false
	}
	return &id, true
}

func parsePathID(c *gin.Context, key string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid "+key)
		return 0, false
	}
	return id, true
}

// @Summary 上传文件
// @Description 上传图片或视频，占用存储配额
// @Tags 文件
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "文件内容"
// @Param folder_id formData string false "目标文件夹ID"
// @Success 201 {object} xerr.Response "上传成功"
// @Failure 507 {object} xerr.Response "存储空间不足"
// @Router /api/v1/files/upload [post]
func UploadFile(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Failed to get file from form: "+err.Error())
			return
		}

		var folderID *uint64
		if s := c.PostForm("folder_id"); s != "" {
			id, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid folder_id")
				return
			}
			folderID = &id
		}

		src, err := fileHeader.Open()
		if err != nil {
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Failed to open uploaded file stream")
			return
		}
		defer src.Close()

		file, err := fileService.Upload(c.Request.Context(), userID, &explorer.UploadInput{
			OriginalName: fileHeader.Filename,
			MimeType:     fileHeader.Header.Get("Content-Type"),
			Size:         fileHeader.Size,
			FolderID:     folderID,
			Content:      src,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusCreated, "文件上传成功", fileService.View(file))
	}
}

// @Summary 文件列表
// @Description 列出指定文件夹下的文件，可按类型过滤
// @Tags 文件
// @Produce json
// @Param folder_id query string false "文件夹ID，缺省为根目录"
// @Param type query string false "image 或 video"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} xerr.Response "文件列表"
// @Router /api/v1/files [get]
func ListFiles(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		folderID, ok := parseOptionalFolderID(c, "folder_id")
		if !ok {
			return
		}
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

		files, total, err := fileService.List(userID, folderID, c.Query("type"), page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "获取文件列表成功", gin.H{
			"files": fileService.Views(files),
			"total": total,
		})
	}
}

// @Summary 下载文件
// @Tags 文件
// @Produce octet-stream
// @Param file_id path int true "文件ID"
// @Success 200 {file} binary "文件内容"
// @Router /api/v1/files/{file_id}/download [get]
func DownloadFile(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		fileID, ok := parsePathID(c, "file_id")
		if !ok {
			return
		}

		file, reader, err := fileService.Download(c.Request.Context(), userID, fileID)
		if err != nil {
			respondError(c, err)
			return
		}
		defer reader.Close()

		contentType := "application/octet-stream"
		if file.MimeType != nil {
			contentType = *file.MimeType
		}
		c.Header("Content-Disposition", `attachment; filename="`+file.OriginalName+`"`)
		c.Header("Content-Type", contentType)
		c.Header("Content-Length", strconv.FormatUint(file.FileSize, 10))

		if _, err := io.Copy(c.Writer, reader); err != nil {
			// 响应已经开始写出，只能记录日志
			logger.Error("DownloadFile: Failed to stream file", zap.Uint64("fileID", fileID), zap.Error(err))
		}
	}
}

// @Summary 获取文件详情
// @Tags 文件
// @Produce json
// @Param file_id path int true "文件ID"
// @Success 200 {object} xerr.Response "文件详情"
// @Router /api/v1/files/{file_id} [get]
func GetFile(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		fileID, ok := parsePathID(c, "file_id")
		if !ok {
			return
		}

		file, err := fileService.GetFileByID(userID, fileID)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "获取文件成功", fileService.View(file))
	}
}

// @Summary 删除文件
// @Description 删除文件并归还配额，物理文件尽力移除
// @Tags 文件
// @Produce json
// @Param file_id path int true "文件ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 403 {object} xerr.Response "文件正在用作头像"
// @Router /api/v1/files/{file_id} [delete]
func DeleteFile(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		fileID, ok := parsePathID(c, "file_id")
		if !ok {
			return
		}

		if err := fileService.Delete(c.Request.Context(), userID, fileID); err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "文件删除成功", nil)
	}
}

// @Summary 批量删除文件
// @Tags 文件
// @Accept json
// @Produce json
// @Param data body BatchDeleteRequest true "文件ID列表"
// @Success 200 {object} xerr.Response "删除统计"
// @Router /api/v1/files/batch-delete [post]
func BatchDeleteFiles(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req BatchDeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		result, err := fileService.BatchDelete(c.Request.Context(), userID, req.FileIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "批量删除完成", result)
	}
}

// @Summary 复制文件
// @Description 复制文件到目标文件夹，副本重新占用配额
// @Tags 文件
// @Accept json
// @Produce json
// @Param data body CopyFileRequest true "源文件和目标文件夹"
// @Success 201 {object} xerr.Response "复制成功"
// @Failure 507 {object} xerr.Response "存储空间不足"
// @Router /api/v1/files/copy [post]
func CopyFile(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req CopyFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		file, err := fileService.Copy(c.Request.Context(), userID, req.FileID, req.FolderID)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusCreated, "文件复制成功", fileService.View(file))
	}
}

// @Summary 移动文件
// @Tags 文件
// @Accept json
// @Produce json
// @Param data body MoveFileRequest true "文件和目标文件夹"
// @Success 200 {object} xerr.Response "移动成功"
// @Router /api/v1/files/move [put]
func MoveFile(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req MoveFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		file, err := fileService.Move(userID, req.FileID, req.FolderID)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "文件移动成功", file)
	}
}

// @Summary 批量移动文件
// @Tags 文件
// @Accept json
// @Produce json
// @Param data body BatchMoveRequest true "文件ID列表和目标文件夹"
// @Success 200 {object} xerr.Response "移动成功"
// @Router /api/v1/files/batch-move [put]
func BatchMoveFiles(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req BatchMoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		moved, err := fileService.BatchMove(c.Request.Context(), userID, req.FileIDs, req.FolderID)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "批量移动完成", gin.H{"moved_count": moved})
	}
}

// @Summary 重命名文件
// @Tags 文件
// @Accept json
// @Produce json
// @Param file_id path int true "文件ID"
// @Param data body RenameFileRequest true "新名称"
// @Success 200 {object} xerr.Response "重命名成功"
// @Router /api/v1/files/{file_id}/rename [put]
func RenameFile(fileService explorer.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		fileID, ok := parsePathID(c, "file_id")
		if !ok {
			return
		}

		var req RenameFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		file, err := fileService.Rename(userID, fileID, req.NewName)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "文件重命名成功", file)
	}
}
